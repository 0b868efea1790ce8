// Command parse_utterance runs one of the SLU parsers over utterances
// given on the command line or on stdin, one per line, and prints the
// dialogue act confusion network plus the best act.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/golangast/transitslu/pkg/logx"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/dispatch"
	"github.com/golangast/transitslu/slu/handcrafted"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/trained"
	"github.com/golangast/transitslu/slu/utterance"
)

type environment struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"warn"`
	ConsoleLog bool   `envconfig:"CONSOLE_LOG" default:"true"`
}

func main() {
	var (
		cldbPath  = flag.String("cldb", "data/database.yaml", "category-label database")
		modelPath = flag.String("model", "", "trained model; the handcrafted parser runs when empty")
		rulesPath = flag.String("rules", "", "optional rewrite rules file")
		showNet   = flag.Bool("net", false, "print the full confusion network, not just the best act")
	)
	flag.Parse()

	_ = godotenv.Load()
	var env environment
	if err := envconfig.Process("slu", &env); err != nil {
		logx.Fatal().Err(err).Msg("bad environment")
	}
	logx.Init(logx.Opts{Level: env.LogLevel, Console: env.ConsoleLog})

	slu, err := buildSLU(*cldbPath, *modelPath, *rulesPath)
	if err != nil {
		logx.Fatal().Err(err).Msg("cannot build parser")
	}

	if flag.NArg() > 0 {
		for _, text := range flag.Args() {
			parseOne(slu, text, *showNet)
		}
		return
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		parseOne(slu, scanner.Text(), *showNet)
	}
	if err := scanner.Err(); err != nil {
		logx.Fatal().Err(err).Msg("cannot read stdin")
	}
}

func buildSLU(cldbPath, modelPath, rulesPath string) (dispatch.SLU, error) {
	db, err := cldb.Load(cldbPath)
	if err != nil {
		return nil, err
	}
	db.AddNumberForms()
	db.AddTimeForms()
	db.BuildIndices()

	norm := normalize.NewTransitEnglish()
	if rulesPath != "" {
		norm, err = normalize.LoadRules(rulesPath)
		if err != nil {
			return nil, err
		}
	}

	if modelPath == "" {
		return handcrafted.NewParser(db, norm), nil
	}
	model, err := trained.Load(modelPath)
	if err != nil {
		return nil, err
	}
	return trained.NewParser(model, db, norm), nil
}

func parseOne(slu dispatch.SLU, text string, showNet bool) {
	dac, err := slu.Parse(utterance.New(text))
	if err != nil {
		logx.Error().Err(err).Str("utterance", text).Msg("parse failed")
		return
	}
	if showNet {
		fmt.Println(dac.String())
	}
	fmt.Printf("%s\t%s\n", text, dac.GetBestDA().String())
}
