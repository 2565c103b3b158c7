package cli

import (
	"github.com/spf13/cobra"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

type mapFlags struct {
	url            string
	maxDepth       int
	maxBreadth     int
	limit          int
	instructions   string
	selectPaths    []string
	selectDomains  []string
	excludePaths   []string
	excludeDomains []string
	allowExternal  bool
	images         bool
	categories     []string
}

func (f *mapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "root url (required)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "how far from the root url to go")
	cmd.Flags().IntVar(&f.maxBreadth, "max-breadth", 0, "links to follow per page")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "total links to process")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "natural language instructions for the crawler")
	cmd.Flags().StringSliceVar(&f.selectPaths, "select-path", nil, "regex of paths to include")
	cmd.Flags().StringSliceVar(&f.selectDomains, "select-domain", nil, "regex of domains to include")
	cmd.Flags().StringSliceVar(&f.excludePaths, "exclude-path", nil, "regex of paths to skip")
	cmd.Flags().StringSliceVar(&f.excludeDomains, "exclude-domain", nil, "regex of domains to skip")
	cmd.Flags().BoolVar(&f.allowExternal, "allow-external", false, "follow links to external domains")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "page categories, e.g. Documentation,Blog")
	_ = cmd.MarkFlagRequired("url")
}

// request заполняет только явно заданные флаги, остальное решает сервис
func (f *mapFlags) request(cmd *cobra.Command) search.MapRequest {
	req := search.MapRequest{
		URL:            f.url,
		Instructions:   f.instructions,
		SelectPaths:    f.selectPaths,
		SelectDomains:  f.selectDomains,
		ExcludePaths:   f.excludePaths,
		ExcludeDomains: f.excludeDomains,
	}
	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		req.MaxDepth = &f.maxDepth
	}
	if flags.Changed("max-breadth") {
		req.MaxBreadth = &f.maxBreadth
	}
	if flags.Changed("limit") {
		req.Limit = &f.limit
	}
	if flags.Changed("allow-external") {
		req.AllowExternal = &f.allowExternal
	}
	if flags.Changed("images") {
		req.IncludeImages = &f.images
	}
	for _, c := range f.categories {
		req.Categories = append(req.Categories, search.Category(c))
	}
	return req
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		urls   []string
		depth  string
		images bool
	)

	cmd := &cobra.Command{
		Use:     "extract [url...]",
		Short:   "Extract raw content from web pages",
		Example: `  tavily extract https://go.dev/doc/effective_go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.tavily.Extract(cmd.Context(), search.ExtractRequest{
				URLs:          append(urls, args...),
				IncludeImages: images,
				ExtractDepth:  search.Depth(depth),
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringSliceVarP(&urls, "url", "u", nil, "urls to extract")
	cmd.Flags().StringVar(&depth, "depth", "", "extract depth: basic or advanced")
	cmd.Flags().BoolVar(&images, "images", false, "include images")
	return cmd
}

func newCrawlCmd(a *app) *cobra.Command {
	var (
		f     mapFlags
		depth string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a site and extract page content",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.tavily.Crawl(cmd.Context(), search.CrawlRequest{
				MapRequest:   f.request(cmd),
				ExtractDepth: search.Depth(depth),
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.images, "images", false, "include images")
	cmd.Flags().StringVar(&depth, "depth", "", "extract depth: basic or advanced")
	return cmd
}

func newMapCmd(a *app) *cobra.Command {
	var f mapFlags

	cmd := &cobra.Command{
		Use:   "map",
		Short: "List the urls of a site without extracting content",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.buildSearch(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.tavily.Map(cmd.Context(), f.request(cmd))
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	f.register(cmd)
	return cmd
}
