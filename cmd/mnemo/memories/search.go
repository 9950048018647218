package memoriescmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
)

const searchLongDesc string = `Rank stored memories by similarity to a query.

Memories are embedded with the configured embedding provider and ranked by
cosine similarity. Hits below memory.similarity_floor are dropped. Memories
missing from the vector index are embedded on the way.

Examples:
  mnemo memories search "weekend hiking plans"
  mnemo memories search budget -k 5
  mnemo memories search budget --json`

const searchShortDesc string = "Rank memories by similarity"

func newSearchCmd() *cobra.Command {
	var (
		topK   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
	}
	flagKeys := append(logFlags(cmd), retrievalFlags(cmd)...)
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Maximum number of results (default memory.top_k)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return errors.New("query cannot be empty")
		}

		store, cfg, err := openStore(cmd, flagKeys)
		if err != nil {
			return err
		}
		defer store.Close()

		if !store.RetrievalEnabled() {
			return errors.New("memory retrieval is disabled: set embedding.provider (mnemo config set embedding.provider ollama)")
		}

		k := topK
		if k <= 0 {
			k = int(cfg.Memory.TopK)
		}

		related, err := store.RetrieveRelated(cmd.Context(), query, k)
		if err != nil {
			return fmt.Errorf("searching memories: %w", err)
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), related)
		}

		if len(related) == 0 {
			fmt.Printf("\n  %s No memories close to %q.\n\n", cliui.DimStyle.Render("●"), query)
			return nil
		}

		fmt.Printf("\n  %s %s\n\n", cliui.HeaderStyle.Render("Related memories"), cliui.DimStyle.Render(fmt.Sprintf("for %q", query)))
		for _, r := range related {
			fmt.Printf("%s  %s\n", listLine(r.Record), cliui.ValueStyle.Render(fmt.Sprintf("%.3f", r.Score)))
		}
		fmt.Println()
		return nil
	}

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
