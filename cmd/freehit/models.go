package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/config"
)

type catalogListing struct {
	Provider string          `yaml:"provider" json:"provider"`
	Models   []catalog.Entry `yaml:"models" json:"models"`
}

func newModelsCmd(stdout io.Writer) *cobra.Command {
	var provider, format string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the compiled-in model catalog of a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.ParseProvider(provider)
			if err != nil {
				return err
			}
			entries, ok := catalogFor(p)
			if !ok {
				fmt.Fprintf(stdout, "%s provider is not implemented yet.\n", p)
				return nil
			}
			return writeCatalog(stdout, catalogListing{Provider: string(p), Models: entries}, format)
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", string(config.ProviderGemini), "Model provider: Gemini, Gemma or Groq")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func writeCatalog(w io.Writer, listing catalogListing, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(listing); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	default:
		return fmt.Errorf("unsupported format %q (want yaml or json)", format)
	}
}

// catalogFor returns the compiled-in catalog of an implemented provider.
func catalogFor(p config.Provider) ([]catalog.Entry, bool) {
	if !p.Implemented() {
		return nil, false
	}
	if p == config.ProviderGemma {
		return catalog.Gemma, true
	}
	return catalog.Gemini, true
}
