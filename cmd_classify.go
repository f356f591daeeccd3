package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dennissolver/LaunchReady-sub000/pkg/discovery"
)

var classifyFlags struct {
	text string
	file string
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify conversation text and print the Findings as JSON",
	Long: "Runs the keyword classifier over --text, --file or stdin.\n" +
		"Nothing is written to the database.",
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyFlags.text, "text", "", "Text to classify")
	f.StringVarP(&classifyFlags.file, "file", "f", "", "File containing the text to classify")
}

func runClassify(cmd *cobra.Command, _ []string) error {
	text, err := readText(classifyFlags.text, classifyFlags.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("no text to classify")
	}

	findings := discovery.NewClassifier(nil).Classify(text)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
