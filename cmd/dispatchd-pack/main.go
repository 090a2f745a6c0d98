// Command dispatchd-pack converts between the human-editable TOML
// document a task author writes and the binary queue snapshot format
// the engine persists under its "tasks" KV key. Each packed entry's
// payload is the template encoding CreateTask accepts.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/GrandEngineering/engine/modules/fib"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/taskstore"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dispatchd-pack",
	Short:   "Pack and unpack task queue snapshots",
	Version: "1.0",
}

func init() {
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(completionCmd)
}

// rawDoc mirrors the shape a TOML document of task entries takes: a
// top-level key "namespace:name" mapping to an array of record tables,
// e.g. [["ns:fib"]]\nn = 10\nresult = 0.
type rawDoc map[string][]map[string]any

// buildRegistry registers every compiled-in task module, the way the
// packer needs template access without running the full engine.
func buildRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register(fib.Identifier, fib.Template)
	return reg
}

func splitCompoundKey(key string) (namespace, name string) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

var packCmd = &cobra.Command{
	Use:   "pack -i INPUT",
	Short: "Pack a TOML task document into a binary queue snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}

		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("read input file %s: %w", input, err)
		}

		var doc rawDoc
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse input TOML: %w", err)
		}

		reg := buildRegistry()
		queue := make(map[types.Identifier][]types.StoredTask)

		for compoundKey, records := range doc {
			namespace, name := splitCompoundKey(compoundKey)
			id := types.NewIdentifier(namespace, name)

			tmpl, ok := reg.Get(id)
			if !ok {
				fmt.Fprintf(os.Stderr, "template not found for %s\n", id.String())
				continue
			}

			for _, record := range records {
				recordText, err := toml.Marshal(record)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to convert entry data to TOML string: %v\n", err)
					continue
				}

				instance, err := tmpl.ParseConfig(string(recordText))
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to parse entry for %s: %v\n", id.String(), err)
					continue
				}

				payload, err := tmpl.Encode(instance)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to encode entry for %s: %v\n", id.String(), err)
					continue
				}

				queue[id] = append(queue[id], types.StoredTask{ID: "", Payload: payload})
			}
		}

		out := taskstore.EncodeQueueSnapshot(queue)
		if err := os.WriteFile("output.rustforge.bin", out, 0o644); err != nil {
			return fmt.Errorf("write output.rustforge.bin: %w", err)
		}
		fmt.Println("Wrote output.rustforge.bin")
		return nil
	},
}

var unpackCmd = &cobra.Command{
	Use:   "unpack -i INPUT",
	Short: "Unpack a binary queue snapshot into a human-readable TOML document",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}

		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("read input file %s: %w", input, err)
		}

		queue, err := taskstore.DecodeQueueSnapshot(data)
		if err != nil {
			return fmt.Errorf("deserialize task queue: %w", err)
		}

		reg := buildRegistry()
		var lines []string

		for id, tasks := range sortedQueue(queue) {
			tmpl, ok := reg.Get(id.id)
			if !ok {
				fmt.Fprintf(os.Stderr, "unknown template for %s\n", id.id.String())
				continue
			}
			for _, task := range tasks {
				if !tmpl.Verify(task.Payload) {
					continue
				}
				instance, err := tmpl.Decode(task.Payload)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to decode entry for %s: %v\n", id.id.String(), err)
					continue
				}
				text, err := tmpl.RenderConfig(instance)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to render entry for %s: %v\n", id.id.String(), err)
					continue
				}
				lines = append(lines, fmt.Sprintf(`[["%s"]]`, id.id.String()))
				lines = append(lines, text)
			}
		}

		if err := os.WriteFile("output.rustforge.toml", []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return fmt.Errorf("write output.rustforge.toml: %w", err)
		}
		fmt.Println("Wrote output.rustforge.toml")
		return nil
	},
}

type queueEntry struct {
	id    types.Identifier
	tasks []types.StoredTask
}

// sortedQueue returns a deterministic ordering over identifiers so
// repeated unpacks of the same snapshot produce byte-identical output.
func sortedQueue(m map[types.Identifier][]types.StoredTask) []queueEntry {
	out := make([]queueEntry, 0, len(m))
	for id, tasks := range m {
		out = append(out, queueEntry{id: id, tasks: tasks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write an example TOML record for every registered task type",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := buildRegistry()
		var lines []string

		for _, id := range sortedIdentifiers(reg.List()) {
			tmpl, _ := reg.Get(id)
			instance, err := tmpl.Decode(make([]byte, 16))
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to build example for %s: %v\n", id.String(), err)
				continue
			}
			text, err := tmpl.RenderConfig(instance)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to render schema for %s: %v\n", id.String(), err)
				continue
			}
			lines = append(lines, fmt.Sprintf(`[["%s"]]`, id.String()))
			lines = append(lines, text)
		}

		if err := os.WriteFile("schema.rustforge.toml", []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return fmt.Errorf("write schema.rustforge.toml: %w", err)
		}
		fmt.Println("Wrote schema.rustforge.toml")
		return nil
	},
}

func sortedIdentifiers(ids []types.Identifier) []types.Identifier {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func init() {
	packCmd.Flags().StringP("input", "i", "", "Input TOML document")
	packCmd.MarkFlagRequired("input")

	unpackCmd.Flags().StringP("input", "i", "", "Input binary snapshot")
	unpackCmd.MarkFlagRequired("input")
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh]",
	Short: "Generate shell completion scripts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell %q", args[0])
		}
	},
}
