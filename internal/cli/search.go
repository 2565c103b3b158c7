package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

type searchFlags struct {
	query          string
	depth          string
	topic          string
	timeRange      string
	days           int
	maxResults     int
	includeDomains []string
	excludeDomains []string
	answer         bool
	rawContent     bool
	images         bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search query (required)")
	cmd.Flags().StringVar(&f.depth, "depth", "", "search depth: basic or advanced")
	cmd.Flags().StringVar(&f.topic, "topic", "", "topic: general, news or finance")
	cmd.Flags().StringVar(&f.timeRange, "time-range", "", "time range: day, week, month, year")
	cmd.Flags().IntVar(&f.days, "days", 0, "days back for news (default 7)")
	cmd.Flags().IntVarP(&f.maxResults, "max-results", "n", 0, "number of results (default 5)")
	cmd.Flags().StringSliceVar(&f.includeDomains, "include-domain", nil, "only search these domains")
	cmd.Flags().StringSliceVar(&f.excludeDomains, "exclude-domain", nil, "never return these domains")
	_ = cmd.MarkFlagRequired("query")
}

func (f *searchFlags) registerContentFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.answer, "answer", false, "include a generated answer")
	cmd.Flags().BoolVar(&f.rawContent, "raw-content", false, "include raw page content")
	cmd.Flags().BoolVar(&f.images, "images", false, "include images")
}

func (f *searchFlags) options() search.SearchOptions {
	return search.SearchOptions{
		SearchDepth:       search.Depth(f.depth),
		Topic:             search.Topic(f.topic),
		TimeRange:         search.TimeRange(f.timeRange),
		DaysBack:          f.days,
		MaxResults:        f.maxResults,
		IncludeDomains:    f.includeDomains,
		ExcludeDomains:    f.excludeDomains,
		IncludeAnswer:     f.answer,
		IncludeRawContent: f.rawContent,
		IncludeImages:     f.images,
	}
}

func (f *searchFlags) request() search.SearchRequest {
	return search.SearchRequest{Query: f.query, SearchOptions: f.options()}
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a Tavily search",
		Example: `  tavily search -q "golang generics"
  tavily search -q "fed rate decision" --topic news --days 3 --answer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.search.Search(cmd.Context(), f.request())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	f.register(cmd)
	f.registerContentFlags(cmd)
	return cmd
}

func newContextCmd(a *app) *cobra.Command {
	var (
		f         searchFlags
		maxTokens int
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Build a token-limited RAG context from search results",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.tavily.SearchContext(cmd.Context(), f.request(), maxTokens)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(out + "\n"))
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&maxTokens, "max-tokens", search.DefaultMaxTokens, "token budget for the context")
	return cmd
}

func newQnACmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "qna",
		Short: "Ask a question and print only the answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			answer, err := c.tavily.QnA(cmd.Context(), f.request())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(answer + "\n"))
			return err
		},
	}
	f.register(cmd)
	return cmd
}

func newCompanyCmd(a *app) *cobra.Command {
	var (
		query      string
		depth      string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "company",
		Short: "Search news, general and finance topics about a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New("query is required")
			}
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			results, err := c.tavily.CompanyInfo(cmd.Context(), query, search.Depth(depth), maxResults)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "company name or question (required)")
	cmd.Flags().StringVar(&depth, "depth", string(search.DepthAdvanced), "search depth")
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 5, "number of results")
	return cmd
}
