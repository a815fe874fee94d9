package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/toyz/dispatch/internal/diagnostics"
	"github.com/toyz/dispatch/pkg/dispatch"
)

type routesOptions struct {
	configFile  string
	format      string
	failOnError bool
	verbose     bool
}

// routeReport is the JSON form of one analyzed route.
type routeReport struct {
	Method string        `json:"method"`
	URL    string        `json:"url"`
	Action string        `json:"action"`
	Issues []issueReport `json:"issues,omitempty"`
}

type issueReport struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func routesCmd() *cobra.Command {
	var opts routesOptions

	cmd := &cobra.Command{
		Use:   "routes [paths...]",
		Short: "Print the route table and its analysis",
		Long: `Scan Go files or directories for controllers and print every route
they produce, followed by the analyzer findings for each route.

Without a path the controller path of the --config file is used.`,
		Example: `  dispatch routes ./controller
  dispatch routes --config dispatch.yaml
  dispatch routes --format json --fail-on-error ./controller`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "Exit non-zero when the analysis reports errors")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show error context")

	return cmd
}

func runRoutes(cmd *cobra.Command, args []string, opts routesOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q, expected text or json", opts.format)
	}

	paths, err := sourcePaths(args, opts.configFile)
	if err != nil {
		return err
	}

	reporter := diagnostics.NewReporter(cmd.OutOrStdout(), opts.verbose)

	var controllers []*dispatch.ClassDescriptor
	for _, path := range paths {
		found, err := dispatch.DescribeSource(path)
		if err != nil {
			diagnostics.NewReporter(cmd.ErrOrStderr(), opts.verbose).ReportError(err)
			return fmt.Errorf("scanning %s failed", path)
		}
		controllers = append(controllers, found...)
	}

	routes := dispatch.TransformControllers(controllers)
	results := dispatch.AnalyzeRoutes(routes)
	warnings, errs := dispatch.CountIssues(results)

	if opts.format == "json" {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	} else {
		reporter.Header("Route Analysis Report")
		dispatch.PrintAnalysis(cmd.OutOrStdout(), results)
		reporter.Summary(len(routes), warnings, errs)
	}

	if opts.failOnError && errs > 0 {
		return fmt.Errorf("route analysis found %d error(s)", errs)
	}
	return nil
}

// sourcePaths returns the paths to scan: the arguments, or the controller
// path of the configuration file.
func sourcePaths(args []string, configFile string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if configFile == "" {
		return nil, errors.New("a path or --config is required")
	}

	fc, err := dispatch.LoadConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	if fc.ControllerPath == "" {
		return nil, fmt.Errorf("%s does not set controllerPath", configFile)
	}

	path := fc.ControllerPath
	if !filepath.IsAbs(path) {
		root := fc.RootPath
		if root == "" {
			root = filepath.Dir(configFile)
		}
		path = filepath.Join(root, path)
	}
	return []string{path}, nil
}

func writeJSON(cmd *cobra.Command, results []dispatch.AnalysisResult) error {
	reports := make([]routeReport, len(results))
	for i, r := range results {
		reports[i] = routeReport{
			Method: string(r.Route.Method),
			URL:    r.Route.URL,
			Action: r.Route.ActionName(),
		}
		for _, issue := range r.Issues {
			reports[i].Issues = append(reports[i].Issues, issueReport{Type: string(issue.Type), Message: issue.Message})
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
