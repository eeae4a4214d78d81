package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mesoslab/dispatcher-deploy/internal/options"
	"github.com/ryanolee/go-chaff"
)

var (
	num    int
	outDir string
	indent bool
)

func processParameters() {
	var (
		_num    = flag.Int("n", 1, "number of generated option documents")
		_outDir = flag.String("outdir", ".", "output directory")
		_indent = flag.Bool("indent", false, "indent generated json")
	)

	flag.Parse()

	num = *_num
	outDir = *_outDir
	indent = *_indent
}

func main() {
	processParameters()

	generator, err := chaff.ParseSchema([]byte(options.SchemaJSON), &chaff.ParserOptions{})
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < num; i++ {
		result := generator.Generate(&chaff.GeneratorOptions{})

		var b []byte
		if indent {
			b, err = json.MarshalIndent(result, "", "  ")
		} else {
			b, err = json.Marshal(result)
		}
		if err != nil {
			log.Fatal(err)
		}

		// Generated documents must pass the installer's own validation.
		if err := options.Validate(b); err != nil {
			log.Fatal(err)
		}

		path := filepath.Join(outDir, fmt.Sprintf("options-%d.json", i))
		if err := os.WriteFile(path, b, 0644); err != nil {
			log.Fatal(err)
		}
	}
}
