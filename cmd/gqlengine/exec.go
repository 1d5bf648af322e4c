package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/introspection"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/validation"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute one request and print the response",
		Long: `Execute one request and print the response as JSON. Subscriptions print
one response per line until the event list is exhausted.`,
		Args: cobra.NoArgs,
		RunE: runExec,
	}
	f := cmd.Flags()
	f.String("schema", "", "SDL schema file (required).")
	f.String("data", "", "JSON or YAML file holding the root value.")
	f.String("query", "", "File holding the request document; - reads stdin (required).")
	f.String("variables", "", "JSON or YAML file holding the variable values.")
	f.String("operation", "", "Name of the operation to run.")
	f.Bool("pretty", false, "Indent the JSON output.")
	f.Bool("introspection", true, "Serve __schema and __type.")
	f.Bool("serial", false, "Resolve fields one at a time.")
	return cmd
}

func runExec(cmd *cobra.Command, _ []string) error {
	conf, err := config(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(conf)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sch, err := loadSchema(conf.GetString("schema"))
	if err != nil {
		return err
	}
	if conf.GetBool("introspection") {
		sch = introspection.Extend(sch)
	}
	root, err := loadData(conf.GetString("data"))
	if err != nil {
		return err
	}
	variables, err := loadData(conf.GetString("variables"))
	if err != nil {
		return err
	}
	query, err := readQuery(cmd.InOrStdin(), conf.GetString("query"))
	if err != nil {
		return err
	}

	v, err := validation.New(sch)
	if err != nil {
		return err
	}
	doc, validity := v.ParseAndValidate(query)

	opts := []executor.Option{executor.WithLogger(logger)}
	if conf.GetBool("serial") {
		opts = append(opts, executor.WithSerialExecution())
	}
	exec := executor.NewExecutor(sch, opts...)
	params := executor.Params{
		Document:      doc,
		OperationName: conf.GetString("operation"),
		Variables:     variables,
		RootValue:     root,
		Validity:      validity,
		Query:         query,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if conf.GetBool("pretty") {
		enc.SetIndent("", "  ")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !isSubscription(doc, params.OperationName) {
		return enc.Encode(exec.Execute(ctx, params))
	}

	ch, err := exec.Subscribe(ctx, params)
	if err != nil {
		var errs executor.Errors
		if errors.As(err, &errs) {
			return enc.Encode(map[string]any{"errors": errs})
		}
		return err
	}
	for res := range ch {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

func readQuery(stdin io.Reader, path string) (string, error) {
	var (
		raw []byte
		err error
	)
	switch path {
	case "":
		return "", errors.New("--query is required")
	case "-":
		raw, err = io.ReadAll(stdin)
	default:
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, "read query")
	}
	return string(raw), nil
}

func isSubscription(doc *language.QueryDocument, operationName string) bool {
	if doc == nil {
		return false
	}
	op := doc.Operations.ForName(operationName)
	if operationName == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	return op != nil && op.Operation == language.Subscription
}
