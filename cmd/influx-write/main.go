package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx/pkg/cfg"
	"github.com/galdor/go-influx/pkg/influx"
	"github.com/galdor/go-log"
	"github.com/galdor/go-program"
)

type Cfg struct {
	Influx influx.ClientCfg `json:"influx"`
}

func (c *Cfg) ValidateJSON(v *ejson.Validator) {
	v.CheckOptionalObject("influx", &c.Influx)
}

func main() {
	p := program.NewProgram("influx-write",
		"encode a measurement and write it to influxdb")

	p.AddOption("c", "cfg-file", "path", "",
		"the path of the configuration file")
	p.AddOption("n", "name", "name", "",
		"the name of the measurement")
	p.AddOption("t", "tags", "tags", "",
		"a comma-separated list of key=value tags")
	p.AddOption("v", "value", "value", "",
		"the value of the measurement")
	p.AddOption("", "type", "type", string(influx.ValueTypeFloat),
		"the type of the value (integer, float, string or boolean)")
	p.AddOption("", "timestamp", "milliseconds", "",
		"the timestamp of the measurement in milliseconds since the epoch")
	p.AddFlag("", "dry-run",
		"print the request instead of sending it")

	p.ParseCommandLine()

	var config Cfg

	if p.IsOptionSet("cfg-file") {
		cfgPath := p.OptionValue("cfg-file")

		p.Info("loading configuration from %q", cfgPath)

		if err := cfg.Load(cfgPath, nil, &config); err != nil {
			p.Fatal("cannot load configuration: %v", err)
		}
	}

	m, err := measurementFromOptions(p)
	if err != nil {
		p.Fatal("invalid measurement: %v", err)
	}

	if hostname, err := os.Hostname(); err == nil {
		config.Influx.Hostname = hostname
	}

	config.Influx.Log = log.DefaultLogger("influx-write")

	client, err := influx.NewClient(config.Influx)
	if err != nil {
		p.Fatal("cannot create client: %v", err)
	}

	if p.IsOptionSet("dry-run") {
		req, err := client.NewWriteRequest(influx.Measurements{m})
		if err != nil {
			p.Fatal("cannot encode measurement: %v", err)
		}

		fmt.Printf("%s %s\n%s", req.Method, redactURL(req.URL), req.Body)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := client.SendMeasurements(ctx, influx.Measurements{m}); err != nil {
		p.Fatal("cannot send measurement: %v", err)
	}

	p.Info("measurement sent to %s", client.Target.Address())
}

func measurementFromOptions(p *program.Program) (*influx.Measurement, error) {
	valueType := influx.ValueType(p.OptionValue("type"))

	value, err := influx.ParseValue(valueType, p.OptionValue("value"))
	if err != nil {
		return nil, err
	}

	tags, err := parseTags(p.OptionValue("tags"))
	if err != nil {
		return nil, err
	}

	m, err := influx.NewValueMeasurement(p.OptionValue("name"), tags, value)
	if err != nil {
		return nil, err
	}

	if p.IsOptionSet("timestamp") {
		s := p.OptionValue("timestamp")

		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}

		if _, err := m.RebaseTimestamp(ms); err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}

	return m, nil
}

func redactURL(uri *url.URL) string {
	uri2 := *uri

	query := uri2.Query()
	if query.Has("p") {
		query.Set("p", "xxxxx")
	}
	uri2.RawQuery = query.Encode()

	return uri2.String()
}

func parseTags(s string) (influx.Tags, error) {
	tags := influx.Tags{}

	if s == "" {
		return tags, nil
	}

	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid tag %q", part)
		}

		tags[key] = value
	}

	return tags, nil
}
