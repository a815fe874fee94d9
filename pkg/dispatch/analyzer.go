package dispatch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/toyz/dispatch/internal/pattern"
)

// IssueType is the severity of an analyzer finding.
type IssueType string

const (
	IssueSuccess IssueType = "success"
	IssueWarning IssueType = "warning"
	IssueError   IssueType = "error"
)

// Issue is one analyzer finding.
type Issue struct {
	Type    IssueType
	Message string
}

// AnalysisResult holds the non-success findings of one route.
type AnalysisResult struct {
	Route  *RouteInfo
	Issues []Issue
}

// Analyzer messages.
const (
	MsgMissingBackingParam = "DSP1000: Route parameters (%s) doesn't have appropriate backing parameter"
	MsgNoTypeInfo          = "DSP1001: Parameter binding skipped because action parameters don't have type information"
	MsgDuplicateRoute      = "DSP1003: Duplicate route found in %s"
	MsgModelWithoutFields  = "DSP1005: Parameter binding skipped because %s doesn't have bindable fields"
	MsgArrayWithoutType    = "DSP1006: Parameter binding skipped because array field without element type found in (%s)"
)

// AnalyzerFunc checks one route against the full table.
type AnalyzerFunc func(route *RouteInfo, all []*RouteInfo) []Issue

// DefaultAnalyzers are run by AnalyzeRoutes.
var DefaultAnalyzers = []AnalyzerFunc{
	backingParameterCheck,
	metadataTypeCheck,
	duplicateRouteCheck,
	modelTypeInfoCheck,
	arrayTypeInfoCheck,
}

// AnalyzeRoutes runs the default checks over every route. Results keep the
// route order and checks report in declaration order. Findings never affect
// routing.
func AnalyzeRoutes(routes []*RouteInfo) []AnalysisResult {
	return AnalyzeRoutesWith(routes, DefaultAnalyzers...)
}

// AnalyzeRoutesWith runs the given checks over every route.
func AnalyzeRoutesWith(routes []*RouteInfo, analyzers ...AnalyzerFunc) []AnalysisResult {
	results := make([]AnalysisResult, 0, len(routes))
	for _, route := range routes {
		result := AnalysisResult{Route: route}
		for _, analyze := range analyzers {
			for _, issue := range analyze(route, routes) {
				if issue.Type != IssueSuccess {
					result.Issues = append(result.Issues, issue)
				}
			}
		}
		results = append(results, result)
	}
	return results
}

func backingParameterCheck(route *RouteInfo, _ []*RouteInfo) []Issue {
	var missing []string
	for _, name := range pattern.Params(route.URL) {
		if _, ok := route.Action.Parameter(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Issue{{Type: IssueError, Message: fmt.Sprintf(MsgMissingBackingParam, strings.Join(missing, ", "))}}
}

func metadataTypeCheck(route *RouteInfo, _ []*RouteInfo) []Issue {
	params := route.Action.Parameters
	if len(params) == 0 {
		return nil
	}
	for _, p := range params {
		if p.HasTypeInfo() {
			return nil
		}
	}
	return []Issue{{Type: IssueWarning, Message: MsgNoTypeInfo}}
}

func duplicateRouteCheck(route *RouteInfo, all []*RouteInfo) []Issue {
	var names []string
	for _, other := range all {
		if other.Method == route.Method && other.URL == route.URL {
			names = append(names, other.ActionName())
		}
	}
	if len(names) < 2 {
		return nil
	}
	return []Issue{{Type: IssueError, Message: fmt.Sprintf(MsgDuplicateRoute, strings.Join(names, " "))}}
}

func modelTypeInfoCheck(route *RouteInfo, _ []*RouteInfo) []Issue {
	var issues []Issue
	walkParameterTypes(route, func(t reflect.Type, _ string) {
		if len(modelFields(t)) == 0 {
			issues = append(issues, Issue{Type: IssueWarning, Message: fmt.Sprintf(MsgModelWithoutFields, t.Name())})
		}
	}, nil)
	return issues
}

func arrayTypeInfoCheck(route *RouteInfo, _ []*RouteInfo) []Issue {
	var issues []Issue
	walkParameterTypes(route, nil, func(location string) {
		issues = append(issues, Issue{Type: IssueWarning, Message: fmt.Sprintf(MsgArrayWithoutType, location)})
	})
	return issues
}

// walkParameterTypes visits every distinct model struct reachable from the
// action's typed, non-ambient parameters, and every array whose element type
// is an interface. Locations are "Model.field" or the parameter name.
func walkParameterTypes(route *RouteInfo, onModel func(t reflect.Type, location string), onUntypedArray func(location string)) {
	visited := make(map[reflect.Type]bool)

	var walk func(t reflect.Type, location string)
	walk = func(t reflect.Type, location string) {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			if t.Elem().Kind() == reflect.Uint8 {
				return
			}
			if t.Elem().Kind() == reflect.Interface {
				if onUntypedArray != nil {
					onUntypedArray(location)
				}
				return
			}
			walk(t.Elem(), location)
		case reflect.Map:
			walk(t.Elem(), location)
		case reflect.Struct:
			if !isModelType(t) || visited[t] {
				return
			}
			visited[t] = true
			if onModel != nil {
				onModel(t, location)
			}
			for _, f := range modelFields(t) {
				walk(f.Type, t.Name()+"."+f.Name)
			}
		}
	}

	for _, p := range route.Action.Parameters {
		if p.Type == nil || isAmbientType(p.Type) {
			continue
		}
		walk(p.Type, p.Name)
	}
}

// CountIssues returns the number of warnings and errors in results.
func CountIssues(results []AnalysisResult) (warnings, errors int) {
	for _, r := range results {
		for _, issue := range r.Issues {
			switch issue.Type {
			case IssueWarning:
				warnings++
			case IssueError:
				errors++
			}
		}
	}
	return warnings, errors
}
