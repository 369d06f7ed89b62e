package detector

import (
	"errors"
	"testing"
)

func TestNewTensor(t *testing.T) {
	data := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	tensor, err := NewTensor(data, 2, 2, 3)
	if err != nil {
		t.Fatalf("NewTensor() error = %v", err)
	}
	if got := tensor.At(1, 1, 2); got != 11 {
		t.Errorf("At(1,1,2) = %v, want 11", got)
	}
	if got := tensor.At(0, 1, 0); got != 3 {
		t.Errorf("At(0,1,0) = %v, want 3", got)
	}
	if got := tensor.Channel(1); len(got) != 6 || got[0] != 6 {
		t.Errorf("Channel(1) = %v", got)
	}

	if _, err := NewTensor(data, 2, 2, 2); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("short shape error = %v, want ErrInvalidDimension", err)
	}
	if _, err := NewTensor(data, -1, 2, 2); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("negative shape error = %v, want ErrInvalidDimension", err)
	}
}

func TestTensorOutOfRangePanics(t *testing.T) {
	tensor, err := NewTensor(make([]float32, 4), 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name        string
		c, row, col int
	}{
		{"channel", 1, 0, 0},
		{"row", 0, 2, 0},
		{"col", 0, 0, 2},
		{"negative", 0, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tensor.At(tt.c, tt.row, tt.col)
		})
	}
}

func TestTensorEmpty(t *testing.T) {
	var zero Tensor
	if !zero.Empty() {
		t.Error("zero Tensor should be empty")
	}
	tensor, err := NewTensor(nil, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !tensor.Empty() {
		t.Error("0x0 tensor should be empty")
	}
}
