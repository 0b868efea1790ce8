package trained

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/utterance"
	"github.com/golangast/transitslu/sluerr"
)

// keySeparator splits a record key from its payload in training files.
const keySeparator = "=>"

// ReadKeyed reads a training file of "key => payload" lines. Lines
// without the separator are keyed by their position so transcription
// dumps without wave keys still pair up. Empty lines are skipped.
func ReadKeyed(path string) (map[string]string, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, sluerr.Wrap(err, "cannot open data file")
	}
	defer file.Close()

	records := map[string]string{}
	var keys []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key := "line-" + strconv.Itoa(lineNo)
		payload := line
		if idx := strings.Index(line, keySeparator); idx >= 0 {
			key = strings.TrimSpace(line[:idx])
			payload = strings.TrimSpace(line[idx+len(keySeparator):])
		}
		if _, dup := records[key]; dup {
			return nil, nil, sluerr.Invariantf("duplicate key %q in %s", key, path)
		}
		records[key] = payload
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, sluerr.Wrap(err, "cannot read data file")
	}
	return records, keys, nil
}

// ReadExamples pairs a transcription file with a dialogue act file by
// their keys. Keys present in only one of the files are an error; the
// pairing order follows the transcription file.
func ReadExamples(uttPath, daPath string) ([]Example, error) {
	utts, keys, err := ReadKeyed(uttPath)
	if err != nil {
		return nil, err
	}
	acts, _, err := ReadKeyed(daPath)
	if err != nil {
		return nil, err
	}
	if len(utts) != len(acts) {
		return nil, sluerr.Invariantf("%d transcriptions but %d dialogue acts", len(utts), len(acts))
	}

	examples := make([]Example, 0, len(keys))
	for _, key := range keys {
		actText, ok := acts[key]
		if !ok {
			return nil, sluerr.Invariantf("no dialogue act for key %q", key)
		}
		d, err := da.Parse(actText)
		if err != nil {
			return nil, sluerr.Wrap(err, "bad dialogue act for key "+key)
		}
		examples = append(examples, Example{
			Utt: utterance.New(utts[key]),
			DA:  d,
		})
	}
	log.Info().Int("examples", len(examples)).Str("utterances", uttPath).
		Str("acts", daPath).Msg("loaded training data")
	return examples, nil
}
