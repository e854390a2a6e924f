// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package main

import (
	"io"
	"os"
	"time"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/checker"
	"github.com/dalzilio/mdd/expr"
	"github.com/dalzilio/mdd/metrics"
	"github.com/dalzilio/mdd/model"
	"github.com/dalzilio/mdd/solver"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

const (
	exitSafe   = 0
	exitUnsafe = 1
	exitError  = 2
)

// strategyValue is a flag holding an enumeration strategy.
type strategyValue mdd.Strategy

var _ pflag.Value = (*strategyValue)(nil)

func (s *strategyValue) String() string { return mdd.Strategy(*s).String() }

func (s *strategyValue) Set(name string) error {
	v, err := mdd.ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = strategyValue(v)
	return nil
}

func (s *strategyValue) Type() string { return "strategy" }

type options struct {
	strategy    strategyValue
	full        bool
	backward    bool
	parallelism int
	threshold   int
	timeout     time.Duration
	dotFile     string
	metricsFile string
	states      int
	debug       bool

	status checker.Status
}

// run executes the command line args and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	o := &options{strategy: strategyValue(mdd.DefaultStrategy)}
	root := newRootCmd(o, stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return exitError
	}
	if o.status == checker.Unsafe {
		return exitUnsafe
	}
	return exitSafe
}

func newRootCmd(o *options, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "mddcheck",
		Short: "Symbolic safety checker",
		Long:  `A tool to check safety properties of finite transition systems using multi-valued decision diagrams.`,
	}
	root.AddCommand(newCheckCmd(o, stdout, stderr))
	return root
}

func newCheckCmd(o *options, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check MODEL.yaml",
		Short: "Check the property of a model",
		Long: `Check that every reachable state of the model satisfies its property.
The result is printed as YAML on the standard output. The exit status is 0
when the model is safe and 1 when it is unsafe.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(stderr)
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			} else {
				logger.SetLevel(logrus.WarnLevel)
			}
			return o.check(args[0], logger, stdout)
		},
	}
	flags := cmd.Flags()
	flags.Var(&o.strategy, "strategy", "enumeration strategy: BFS, SAT or GSAT")
	flags.BoolVar(&o.full, "full", false, "explore the successors of violating states")
	flags.BoolVar(&o.backward, "backward-trace", false, "print counterexamples from the violating state back to the initial one")
	flags.IntVar(&o.parallelism, "parallel", 1, "number of transitions compiled concurrently")
	flags.IntVar(&o.threshold, "threshold", -1, "largest domain enumerated value by value (default 256)")
	flags.DurationVar(&o.timeout, "timeout", 0, "timeout of each satisfiability check (0 for none)")
	flags.StringVar(&o.dotFile, "dot", "", "write the explored state space in Graphviz format to this file")
	flags.StringVar(&o.metricsFile, "metrics-out", "", "write Prometheus metrics of the check to this file")
	flags.IntVar(&o.states, "states", 0, "print at most this many explored states")
	flags.BoolVar(&o.debug, "debug", false, "enable debug logging")
	return cmd
}

type statistics struct {
	Violating      int64  `yaml:"violating"`
	States         int64  `yaml:"states"`
	CacheHits      int64  `yaml:"cacheHits"`
	CacheQueries   int64  `yaml:"cacheQueries"`
	CacheSize      int    `yaml:"cacheSize"`
	Iterations     int    `yaml:"iterations"`
	OracleChecks   int64  `yaml:"oracleChecks"`
	CompileQueries int64  `yaml:"compileQueries"`
	CompileHits    int64  `yaml:"compileHits"`
	Duration       string `yaml:"duration"`
}

type step struct {
	State      yaml.MapSlice `yaml:"state"`
	Transition *int          `yaml:"transition,omitempty"`
}

type report struct {
	Model      string          `yaml:"model,omitempty"`
	Status     string          `yaml:"status"`
	Strategy   string          `yaml:"strategy"`
	Statistics statistics      `yaml:"statistics"`
	Trace      []step          `yaml:"trace,omitempty"`
	States     []yaml.MapSlice `yaml:"states,omitempty"`
}

func (o *options) checkerOptions(logger logrus.FieldLogger) []checker.Option {
	res := []checker.Option{
		checker.WithLogger(logger),
		checker.WithStrategy(mdd.Strategy(o.strategy)),
		checker.WithForwardTrace(!o.backward),
		checker.WithParallelism(o.parallelism),
	}
	if o.full {
		res = append(res, checker.WithFullStateSpace())
	}
	if o.threshold >= 0 {
		res = append(res, checker.WithDomainThreshold(o.threshold))
	}
	if o.timeout > 0 {
		res = append(res, checker.WithSolverPool(solver.NewGiniPool(solver.Timeout(o.timeout))))
	}
	return res
}

func (o *options) check(path string, logger *logrus.Logger, out io.Writer) error {
	m, err := model.LoadFile(path)
	if err != nil {
		return err
	}
	opts := append(m.Options(), o.checkerOptions(logger.WithField("model", path))...)
	var reg *prometheus.Registry
	if o.metricsFile != "" {
		reg = prometheus.NewRegistry()
		c := metrics.New()
		if err := c.Register(reg); err != nil {
			return err
		}
		opts = append(opts, checker.WithMetrics(c))
	}
	c, err := checker.NewDefault(m.System(), opts...)
	if err != nil {
		return err
	}
	res, err := c.Check()
	if err != nil {
		return errors.Wrapf(err, "checking %s", path)
	}
	o.status = res.Status()

	rep := newReport(m.Name, mdd.Strategy(o.strategy), res)
	if o.states > 0 {
		err := res.Proof().Valuations(func(v expr.Valuation) error {
			if len(rep.States) == o.states {
				return errEnough
			}
			rep.States = append(rep.States, mapSlice(v))
			return nil
		})
		if err != nil && err != errEnough {
			return err
		}
	}
	buf, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	if _, err := out.Write(buf); err != nil {
		return err
	}
	if o.dotFile != "" {
		if err := writeFile(o.dotFile, res.Proof().WriteDot); err != nil {
			return err
		}
	}
	if reg != nil {
		if err := writeFile(o.metricsFile, func(w io.Writer) error { return metrics.WriteText(w, reg) }); err != nil {
			return err
		}
	}
	return nil
}

var errEnough = errors.New("enough states")

func newReport(name string, s mdd.Strategy, res *checker.Result[expr.Valuation, checker.Step]) report {
	st := res.Stats()
	rep := report{
		Model:    name,
		Status:   res.Status().String(),
		Strategy: s.String(),
		Statistics: statistics{
			Violating:      st.ViolatingSize,
			States:         st.StateSpaceSize,
			CacheHits:      st.CacheHits,
			CacheQueries:   st.CacheQueries,
			CacheSize:      st.CacheSize,
			Iterations:     st.Iterations,
			OracleChecks:   st.OracleChecks,
			CompileQueries: st.CompileQueries,
			CompileHits:    st.CompileHits,
			Duration:       st.Duration.Round(time.Microsecond).String(),
		},
	}
	tr := res.Trace()
	if tr == nil {
		return rep
	}
	for k, v := range tr.States {
		s := step{State: mapSlice(v)}
		if k < len(tr.Actions) {
			d := tr.Actions[k].Disjunct
			s.Transition = &d
		}
		rep.Trace = append(rep.Trace, s)
	}
	return rep
}

// mapSlice lists the values of v by variable name, with booleans printed as
// true or false.
func mapSlice(v expr.Valuation) yaml.MapSlice {
	decls := v.Decls()
	res := make(yaml.MapSlice, 0, len(decls))
	for _, d := range decls {
		var val interface{} = v[d]
		if d.Var.Type.IsBool() {
			val = v[d] != 0
		}
		res = append(res, yaml.MapItem{Key: d.String(), Value: val})
	}
	return res
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

