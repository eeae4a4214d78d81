package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/mesoslab/dispatcher-deploy/internal/deploy"
)

var recordsPath string

func processParameters() {
	_records := flag.String("records", "", "deployment output file to convert")

	flag.Parse()

	recordsPath = *_records
}

type dispatcher struct {
	Service       string `json:"service"`
	DriversRole   string `json:"driversRole"`
	ExecutorsRole string `json:"executorsRole"`
}

func main() {
	processParameters()

	if recordsPath == "" {
		log.Fatal("missing -records")
	}

	file, err := os.Open(recordsPath)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	var dispatchers []dispatcher

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		record, err := deploy.ParseRecord(line)
		if err != nil {
			log.Fatal(err)
		}

		dispatchers = append(dispatchers, dispatcher{
			Service:       record.ServiceName,
			DriversRole:   record.DriversRole,
			ExecutorsRole: record.ExecutorsRole,
		})
	}
	if err := scanner.Err(); err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dispatchers); err != nil {
		log.Fatal(err)
	}
}
