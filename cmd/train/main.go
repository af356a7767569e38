// nodenet-train: trains a feed-forward network from a CSV file or the built-in
// sample set, optionally checking encrypted split inference afterwards.
//
// Usage:
//
//	nodenet-train --arch="2 2 1" --epochs=5000 --lr=1 --split
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"nodenet/core/ckkswrapper"
	"nodenet/dotgraph"
	"nodenet/m"
	"nodenet/nn"
	"nodenet/split"
	"nodenet/utils"
)

var (
	archFlag     = flag.String("arch", "2 2 1", "Layer sizes, input layer first")
	dataPath     = flag.String("data", "", "CSV file with inputs followed by targets per line; empty uses the built-in set")
	header       = flag.Bool("header", false, "CSV file starts with a header line")
	epochs       = flag.Int("epochs", 5000, "Number of training epochs")
	learningRate = flag.Float64("lr", 1, "Learning rate")
	decayEvery   = flag.Int("decay-every", 100, "Decay the learning rate every this many epochs (0 disables)")
	decay        = flag.Float64("decay", 0.995, "Learning rate decay factor")
	lambda       = flag.Float64("lambda", 0, "L2 regularization coefficient")
	loss         = flag.String("loss", "placeholder", "Loss function: placeholder, mse, cross-entropy")
	activation   = flag.String("activation", "sigmoid", "Hidden layer activation: sigmoid, tanh, identity")
	initName     = flag.String("init", "gaussian", "Weight initializer: gaussian, uniform, zero")
	seed         = flag.Uint64("seed", 42, "Random seed for the initializer")
	intelligent  = flag.Bool("intelligent", false, "Search the learning rate per batch")
	online       = flag.Bool("online", false, "Train one instance at a time instead of full batches")
	normalize    = flag.Bool("normalize", false, "Standardize inputs to zero mean and unit variance")
	splitCheck   = flag.Bool("split", false, "Verify encrypted split inference against the plain network")
	logN         = flag.Int("logN", 13, "Ring dimension log2 for split inference (12-16)")
	dotPath      = flag.String("dot", "", "Write the trained network as a Graphviz file")
	verbose      = flag.Bool("verbose", true, "Print timing statistics")
)

// builtin is a small separable set for the 2-2-1 default architecture.
var builtin = m.Lines{
	{Inputs: []float64{1, 0}, Targets: []float64{1}},
	{Inputs: []float64{1, 1}, Targets: []float64{0}},
	{Inputs: []float64{2, 1}, Targets: []float64{1}},
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()
	utils.Verbose = *verbose

	arch, err := utils.ParseArchitecture(*archFlag)
	if err != nil {
		klog.Exitf("invalid --arch: %v", err)
	}
	cfg := &utils.Config{
		Architecture: arch,
		DataPath:     *dataPath,
		Header:       *header,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		DecayEvery:   *decayEvery,
		Decay:        *decay,
		Lambda:       *lambda,
		Loss:         *loss,
		Activation:   *activation,
		Init:         *initName,
		Seed:         *seed,
		Intelligent:  *intelligent,
		Online:       *online,
		Normalize:    *normalize,
		Split:        *splitCheck,
		LogN:         *logN,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		klog.Exitf("invalid configuration: %v", err)
	}

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	start := time.Now()
	lines, err := loadLines(cfg)
	if err != nil {
		klog.Exitf("loading data: %v", err)
	}
	if cfg.Normalize {
		mean, std := m.CalculateMeanStdDev(lines)
		lines = m.NormalizeLines(lines, std, mean)
	}
	instances, labels := lines.Split()
	stats.DataLoadingTime = time.Since(start)
	fmt.Printf("Loaded %s instances with %d inputs and %d targets\n",
		humanize.Comma(int64(len(instances))), arch[0], arch[len(arch)-1])

	start = time.Now()
	net, err := buildNetwork(cfg)
	if err != nil {
		klog.Exitf("building network: %v", err)
	}
	stats.ModelInitTime = time.Since(start)

	start = time.Now()
	done, err := train(cfg, net, instances, labels)
	if err != nil {
		klog.Exitf("training: %v", err)
	}
	stats.TrainingTime = time.Since(start)
	fmt.Printf("Completed %s epochs (%s instance presentations), final learning rate %g\n",
		humanize.Comma(int64(done)), humanize.Comma(int64(done*len(instances))), net.LearningRate())

	start = time.Now()
	report(net, instances, labels)
	stats.EvaluationTime = time.Since(start)

	if cfg.Split {
		heTime, inferTime, err := verifySplit(cfg, net, instances)
		if err != nil {
			klog.Exitf("split inference: %v", err)
		}
		stats.HEInitTime, stats.SplitInferenceTime = heTime, inferTime
	}

	if *dotPath != "" {
		f := must.M1(os.Create(*dotPath))
		must.M(dotgraph.Write(f, net))
		must.M(f.Close())
		fmt.Printf("Network graph written to %s\n", *dotPath)
	}

	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(stats, done)
}

func loadLines(cfg *utils.Config) (m.Lines, error) {
	inputs, outputs := cfg.Architecture[0], cfg.Architecture[len(cfg.Architecture)-1]
	if cfg.DataPath == "" {
		if inputs != 2 || outputs != 1 {
			return nil, errors.Errorf("the built-in set needs 2 inputs and 1 output, --arch has %d and %d", inputs, outputs)
		}
		return builtin, nil
	}
	f, err := os.Open(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.ReadLines(f, inputs, outputs, cfg.Header)
}

func buildNetwork(cfg *utils.Config) (*nn.Network, error) {
	arch := cfg.Architecture
	initializer, _ := m.InitializerFor(cfg.Init, cfg.Seed)
	hidden := m.ActivationLookup[cfg.Activation]
	net := nn.New(arch[0], len(arch)-1)
	for l := 1; l < len(arch); l++ {
		nodes := make([]nn.Node, arch[l])
		for j := range nodes {
			if l == len(arch)-1 {
				nodes[j] = nn.NewSigmoidNeuron(arch[l-1], initializer)
			} else {
				nodes[j] = nn.NewNeuron(arch[l-1], initializer, hidden)
			}
		}
		if err := net.ConfigureLayer(l, nodes); err != nil {
			return nil, err
		}
	}
	net.SetLearningRate(cfg.LearningRate)
	net.SetLossFunction(m.LossLookup[cfg.Loss])
	net.SetLearningRateMultiplier(cfg.DecayEvery, cfg.Decay)
	net.SetIntelligentLearningRate(cfg.Intelligent)
	net.SetLambda(cfg.Lambda)
	return net, nil
}

func train(cfg *utils.Config, net *nn.Network, instances, labels [][]float64) (int, error) {
	bar := progressbar.NewOptions(cfg.Epochs,
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "=", SaucerHead: ">", SaucerPadding: ".", BarStart: "[", BarEnd: "]"}), // same values as ThemeASCII in progressbar >= v3.18
		progressbar.OptionSetWriter(os.Stderr))
	defer func() { _ = bar.Finish() }()

	if !cfg.Online {
		net.SetEpochHook(func(int) { _ = bar.Add(1) })
		return net.TrainBatch(instances, labels, cfg.Epochs)
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		for i := range instances {
			if err := net.Train(instances[i], labels[i]); err != nil {
				return epoch - 1, err
			}
		}
		if cfg.DecayEvery > 0 && epoch%cfg.DecayEvery == 0 {
			net.SetLearningRate(net.LearningRate() * cfg.Decay)
		}
		_ = bar.Add(1)
	}
	return cfg.Epochs, nil
}

func report(net *nn.Network, instances, labels [][]float64) {
	sq, err := net.ComputeError(instances, labels)
	if err != nil {
		klog.Errorf("computing error: %v", err)
		return
	}
	l, err := net.ComputeLoss(instances, labels)
	if err != nil {
		klog.Errorf("computing loss: %v", err)
		return
	}
	fmt.Printf("Squared error: %.6f, %s loss: %.6f\n", sq, net.LossFunction(), l)

	shown := min(len(instances), 10)
	for i := 0; i < shown; i++ {
		out, err := net.FeedForward(instances[i])
		if err != nil {
			klog.Errorf("instance %d: %v", i, err)
			return
		}
		fmt.Printf("  %v -> %.4f (target %v)\n", instances[i], out, labels[i])
	}
}

// verifySplit runs every instance through an in-process split server and
// reports the largest deviation from plain inference.
func verifySplit(cfg *utils.Config, net *nn.Network, instances [][]float64) (heTime, inferTime time.Duration, err error) {
	start := time.Now()
	he, err := ckkswrapper.NewHeContextWithLogN(cfg.LogN)
	if err != nil {
		return 0, 0, err
	}
	server, err := split.NewLayerServer(he.GenServerKit(split.Rotations(net.NumberOfInputs())), net)
	if err != nil {
		return 0, 0, err
	}
	heTime = time.Since(start)

	toServer, fromClient := io.Pipe()
	toClient, fromServer := io.Pipe()
	served := make(chan error, 1)
	go func() {
		err := server.Serve(split.NewProtocol(toServer, fromServer))
		fromServer.Close()
		served <- err
	}()
	defer fromClient.Close()
	defer toClient.Close()
	client := split.NewClient(he, net, split.NewProtocol(toClient, fromClient))

	start = time.Now()
	var maxDiff float64
	for i, instance := range instances {
		got, err := client.Infer(instance)
		if err != nil {
			return heTime, 0, errors.Wrapf(err, "instance %d", i)
		}
		want, err := net.FeedForward(instance)
		if err != nil {
			return heTime, 0, err
		}
		for j := range want {
			maxDiff = math.Max(maxDiff, math.Abs(want[j]-got[j]))
		}
	}
	if err := client.Close(); err != nil {
		return heTime, 0, err
	}
	if err := <-served; err != nil {
		return heTime, 0, err
	}
	inferTime = time.Since(start)

	fmt.Printf("Split inference on %s instances: max deviation from plain inference %.3g\n",
		humanize.Comma(int64(len(instances))), maxDiff)
	return heTime, inferTime, nil
}
