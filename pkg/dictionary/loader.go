package dictionary

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// LoadFile reads every document of a seed file. Text lines become
// {textField: line}; blank lines and lines starting with # are skipped.
func LoadFile(path, textField string) ([]*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateFileFormat(path, format); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	start := time.Now()
	docs, err := Decode(f, format, textField)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Debugf("Loaded [%d] documents from %s in %v", len(docs), path, time.Since(start))
	return docs, nil
}

// Decode reads documents in format from r.
func Decode(r io.Reader, format FileFormat, textField string) ([]*Document, error) {
	switch format {
	case FormatText:
		return decodeText(r, textField)
	case FormatJSON:
		return decodeJSON(r)
	case FormatJSONL:
		return decodeJSONL(r)
	case FormatMsgpack:
		return decodeMsgpack(r)
	}
	return nil, fmt.Errorf("unknown format: %v", format)
}

func decodeText(r io.Reader, textField string) ([]*Document, error) {
	var docs []*Document
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		docs = append(docs, NewDocument(textField, line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return docs, nil
}

func decodeJSON(r io.Reader) ([]*Document, error) {
	var docs []*Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding json array: %w", err)
	}
	return compact(docs), nil
}

func decodeJSONL(r io.Reader) ([]*Document, error) {
	var docs []*Document
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var d Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, &d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading jsonl: %w", err)
	}
	return docs, nil
}

func decodeMsgpack(r io.Reader) ([]*Document, error) {
	var docs []*Document
	dec := msgpack.NewDecoder(r)
	for {
		v, err := dec.DecodeInterface()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding msgpack: %w", err)
		}
		switch x := v.(type) {
		case map[string]any:
			d := Document(x)
			docs = append(docs, &d)
		case []any:
			for i, e := range x {
				m, ok := e.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("msgpack element %d is %T, not a map", i, e)
				}
				d := Document(m)
				docs = append(docs, &d)
			}
		default:
			return nil, fmt.Errorf("msgpack value is %T, not a map or array", v)
		}
	}
}

func compact(docs []*Document) []*Document {
	out := docs[:0]
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
