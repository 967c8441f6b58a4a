// Package cfg loads YAML configuration files.
//
// Files are first rendered as Go templates, which lets them refer to
// environment variables:
//
//	target:
//	  host: {{ env "INFLUX_HOST" | default "localhost" }}
//	  password: {{ env "INFLUX_PASSWORD" | quote }}
//
// The YAML document is then converted to JSON and decoded with go-ejson, which
// calls the ValidateJSON method of every value implementing it.
package cfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/galdor/go-ejson"
	"gopkg.in/yaml.v3"
)

var templateFuncs = template.FuncMap{
	"env": os.Getenv,

	"quote": func(s string) string {
		data, _ := json.Marshal(s)
		return string(data)
	},

	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	"default": func(defaultValue, s string) string {
		if s == "" {
			return defaultValue
		}

		return s
	},
}

func Load(filePath string, templateData, dest interface{}) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", filePath, err)
	}

	data, err := Render(filepath.Base(filePath), content, templateData)
	if err != nil {
		return err
	}

	return Decode(data, dest)
}

func Render(name string, content []byte, templateData interface{}) ([]byte, error) {
	tpl := template.New(name)
	tpl.Option("missingkey=error")
	tpl.Funcs(templateFuncs)

	if _, err := tpl.Parse(string(content)); err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, templateData); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode decodes and validates a YAML document. An empty document leaves
// dest unchanged.
func Decode(data []byte, dest interface{}) error {
	var yamlValue interface{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&yamlValue); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("cannot decode yaml data: %w", err)
	}

	value, err := jsonValue(yamlValue)
	if err != nil {
		return fmt.Errorf("invalid yaml data: %w", err)
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cannot encode json data: %w", err)
	}

	if err := ejson.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// jsonValue converts a value decoded by yaml.v3 to a value accepted by
// encoding/json. Mappings whose keys are not all strings are decoded as
// map[interface{}]interface{}, which encoding/json rejects.
func jsonValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		array := make([]interface{}, len(v))

		for i, element := range v {
			jsonElement, err := jsonValue(element)
			if err != nil {
				return nil, err
			}

			array[i] = jsonElement
		}

		return array, nil

	case map[string]interface{}:
		object := make(map[string]interface{}, len(v))

		for key, member := range v {
			jsonMember, err := jsonValue(member)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			object[key] = jsonMember
		}

		return object, nil

	case map[interface{}]interface{}:
		object := make(map[string]interface{}, len(v))

		for key, member := range v {
			keyString, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("object key \"%v\" is not a string", key)
			}

			jsonMember, err := jsonValue(member)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", keyString, err)
			}

			object[keyString] = jsonMember
		}

		return object, nil
	}

	return value, nil
}
