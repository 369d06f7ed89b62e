package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/tsawler/go-metal/checkpoints"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/centerface/internal/centerface"
	"github.com/dudu/centerface/internal/inference"
)

func main() {
	libPath := flag.String("lib", "", "onnxruntime shared library (default: platform location)")
	metal := flag.Bool("metal", false, "Also try importing the graph with go-metal")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: modelinfo [options] <centerface.onnx>\n\n")
		fmt.Fprintf(os.Stderr, "Prints model inputs and outputs and checks the CenterFace tensor names.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	modelPath := flag.Arg(0)

	if err := centerface.CheckModel(modelPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := inference.Initialize(*libPath, nil); err != nil {
		fmt.Printf("❌ %v\n", err)
		fmt.Println("\nYou may need to install ONNX Runtime:")
		fmt.Println("  brew install onnxruntime")
		os.Exit(1)
	}
	defer inference.Shutdown()
	fmt.Printf("✓ ONNX Runtime %s initialized\n", ort.GetVersion())

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		fmt.Printf("❌ Failed to get model info: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nInputs (%d):\n", len(inputs))
	for _, info := range inputs {
		fmt.Printf("  %s: shape=%v, type=%v\n", info.Name, info.Dimensions, info.DataType)
	}

	fmt.Printf("\nOutputs (%d):\n", len(outputs))
	for _, info := range outputs {
		fmt.Printf("  %s: shape=%v, type=%v\n", info.Name, info.Dimensions, info.DataType)
	}

	names := make(map[string]bool)
	for _, info := range inputs {
		names[info.Name] = true
	}
	for _, info := range outputs {
		names[info.Name] = true
	}
	missing := missingTensors(names)
	if len(missing) > 0 {
		fmt.Printf("\n❌ Not a CenterFace model, missing tensors: %v\n", missing)
		os.Exit(1)
	}
	fmt.Println("\n✅ All CenterFace tensors present")

	if metadata, err := ort.GetModelMetadata(modelPath); err == nil {
		fmt.Println("\nMetadata:")
		if producer, err := metadata.GetProducerName(); err == nil {
			fmt.Printf("  Producer: %s\n", producer)
		}
		if version, err := metadata.GetVersion(); err == nil {
			fmt.Printf("  Version: %d\n", version)
		}
		metadata.Destroy()
	}

	if *metal {
		importMetal(modelPath)
	}
}

// missingTensors lists the CenterFace tensor names absent from names, sorted.
func missingTensors(names map[string]bool) []string {
	var missing []string
	for _, name := range append([]string{centerface.InputName}, centerface.OutputNames...) {
		if !names[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func importMetal(modelPath string) {
	fmt.Println("\nAttempting to import with go-metal...")
	checkpoint, err := checkpoints.NewONNXImporter().ImportFromONNX(modelPath)
	if err != nil {
		fmt.Printf("❌ go-metal cannot import this graph: %v\n", err)
		fmt.Println("Inference stays on ONNX Runtime.")
		return
	}
	fmt.Printf("✓ go-metal imported %d layers, %d weight tensors\n",
		len(checkpoint.ModelSpec.Layers), len(checkpoint.Weights))
}
