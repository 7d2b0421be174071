package main

import (
	"github.com/metrics-exporter/cmd/exporter"
)

func main() {
	exporter.Execute()
}
