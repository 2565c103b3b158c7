package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/tavily-go/internal/service"
)

func newHybridCmd(a *app) *cobra.Command {
	var (
		f          searchFlags
		maxLocal   int
		maxForeign int
		persist    string
		embeddings bool
	)

	cmd := &cobra.Command{
		Use:   "hybrid",
		Short: "Merge local vector search with Tavily results",
		Long: `Searches the local pgvector collection and Tavily at the same time,
reranks the combined pool and prints the best documents.

With --persist default the remote documents are embedded and stored
in the local collection for future queries.`,
		Example: `  tavily hybrid -q "messi world cup" -n 5
  tavily hybrid -q "messi" --max-local 2 --max-foreign 8 --persist default`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildHybrid(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			req := service.MergeRequest{
				Query:      f.query,
				MaxResults: a.cfg.Hybrid.MaxResults,
				Persist:    service.PersistMode(persist),
				Options:    f.options(),
			}
			flags := cmd.Flags()
			if flags.Changed("max-results") {
				req.MaxResults = f.maxResults
			}
			if flags.Changed("max-local") {
				req.MaxLocal = &maxLocal
			}
			if flags.Changed("max-foreign") {
				req.MaxForeign = &maxForeign
			}
			// max_results в Options заменяется лимитом удаленного поиска
			req.Options.MaxResults = 0

			res, err := c.hybrid.Merge(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !embeddings {
				for i := range res.Documents {
					res.Documents[i].Embedding = nil
				}
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&maxLocal, "max-local", 0, "local candidates (default max-results)")
	cmd.Flags().IntVar(&maxForeign, "max-foreign", 0, "remote candidates (default max-results)")
	cmd.Flags().StringVar(&persist, "persist", string(service.PersistSkip), "save remote documents: skip or default")
	cmd.Flags().BoolVar(&embeddings, "embeddings", false, "include embeddings in the output")
	return cmd
}

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the local vector collection",
	}

	var dimension int
	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create the collection table and cosine index if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildHybrid(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if dimension == 0 {
				dimension = a.cfg.Embedding.Dimension
			}
			if err := c.db.EnsureSchema(cmd.Context(), a.cfg.Hybrid.Index, dimension); err != nil {
				return err
			}
			if err := c.hybrid.ValidateIndex(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "index %q ready (dimension %d)\n", a.cfg.Hybrid.Index, dimension)
			return err
		},
	}
	ensure.Flags().IntVar(&dimension, "dimension", 0, "embedding dimension (default EMBEDDING_DIMENSION)")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that the collection is a usable cosine vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildHybrid(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.hybrid.ValidateIndex(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "index %q ok\n", a.cfg.Hybrid.Index)
			return err
		},
	}

	cmd.AddCommand(ensure, validate)
	return cmd
}
