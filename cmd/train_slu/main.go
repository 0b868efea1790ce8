// Command train_slu fits the statistical SLU ensemble on a keyed
// transcription/dialogue-act corpus and writes the model as a gob blob.
package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/golangast/transitslu/pkg/logx"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/trained"
)

type environment struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ConsoleLog bool   `envconfig:"CONSOLE_LOG" default:"true"`
}

func main() {
	var (
		uttPath   = flag.String("utterances", "data/train.trn", "keyed transcription file")
		daPath    = flag.String("acts", "data/train.sem", "keyed dialogue act file")
		cldbPath  = flag.String("cldb", "data/database.yaml", "category-label database")
		rulesPath = flag.String("rules", "", "optional rewrite rules file; built-in rules otherwise")
		modelPath = flag.String("model", "models/slu.model.gz", "output model path")
		backend   = flag.String("backend", "logistic", "classifier back-end: logistic or neural")
		epochs    = flag.Int("epochs", 0, "override training epochs for the neural back-end")
		inspect   = flag.Bool("inspect", false, "print the trained templates instead of just the summary")
	)
	flag.Parse()

	_ = godotenv.Load()
	var env environment
	if err := envconfig.Process("slu", &env); err != nil {
		logx.Fatal().Err(err).Msg("bad environment")
	}
	logx.Init(logx.Opts{Level: env.LogLevel, Console: env.ConsoleLog})

	db, err := cldb.Load(*cldbPath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", *cldbPath).Msg("cannot load category-label database")
	}
	db.AddNumberForms()
	db.AddTimeForms()
	db.BuildIndices()

	norm := normalize.NewTransitEnglish()
	if *rulesPath != "" {
		norm, err = normalize.LoadRules(*rulesPath)
		if err != nil {
			logx.Fatal().Err(err).Str("path", *rulesPath).Msg("cannot load rewrite rules")
		}
	}

	examples, err := trained.ReadExamples(*uttPath, *daPath)
	if err != nil {
		logx.Fatal().Err(err).Msg("cannot load training data")
	}

	cfg := trained.DefaultConfig()
	cfg.BackendName = *backend
	if *epochs > 0 {
		cfg.Epochs = *epochs
	}
	trainer, err := trained.NewTrainer(db, norm, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("cannot configure trainer")
	}

	model, err := trainer.Train(examples)
	if err != nil {
		logx.Fatal().Err(err).Msg("training failed")
	}
	if err := model.Save(*modelPath); err != nil {
		logx.Fatal().Err(err).Str("path", *modelPath).Msg("cannot save model")
	}
	logx.Info().Str("path", *modelPath).Int("templates", len(model.Templates)).
		Int("features", len(model.FeatureKeys)).Msg("model saved")

	if *inspect {
		printTemplates(model)
	}
}

// printTemplates lists every classifier template with its training
// support, most frequent first.
func printTemplates(model *trained.Model) {
	templates := append([]*trained.Template(nil), model.Templates...)
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].Count > templates[j].Count })
	for _, tpl := range templates {
		kind := "concrete"
		if tpl.Abstracted {
			kind = "abstracted(" + strings.ToUpper(tpl.Category) + ")"
		}
		fmt.Printf("%6d  %-12s %s\n", tpl.Count, kind, tpl.Key())
	}
}
