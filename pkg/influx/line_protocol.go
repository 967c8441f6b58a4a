package influx

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// EncodeMeasurement writes the line protocol representation of a measurement
// to buf, without a trailing newline. The timestamp is converted to
// precision. Nothing is written if the measurement cannot be encoded.
func EncodeMeasurement(m *Measurement, precision Precision, buf *bytes.Buffer) error {
	if err := m.Validate(); err != nil {
		return err
	}

	timestamp, err := precision.Convert(m.timestamp, m.precision)
	if err != nil {
		return err
	}

	var line bytes.Buffer

	line.WriteString(EscapeMeasurement(m.name))
	if len(m.tags) > 0 {
		encodeTags(m.tags, &line)
	}

	line.WriteByte(' ')
	encodeValues(m.values, &line)

	line.WriteByte(' ')
	line.WriteString(strconv.FormatInt(timestamp, 10))

	buf.Write(line.Bytes())
	return nil
}

// EncodeMeasurements writes each measurement followed by a newline. If any
// measurement cannot be encoded, nothing is written.
func EncodeMeasurements(ms Measurements, precision Precision, buf *bytes.Buffer) error {
	var lines bytes.Buffer

	for _, m := range ms {
		if err := EncodeMeasurement(m, precision, &lines); err != nil {
			return fmt.Errorf("cannot encode measurement %q: %w", m.name, err)
		}

		lines.WriteByte('\n')
	}

	buf.Write(lines.Bytes())
	return nil
}

func FormatMeasurement(m *Measurement, precision Precision) (string, error) {
	var buf bytes.Buffer

	if err := EncodeMeasurement(m, precision, &buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func encodeTags(tags Tags, buf *bytes.Buffer) {
	// From the InfluxDB documentation:
	//
	// For best performance you should sort tags by key before sending them to
	// the database. The sort should match the results from the Go
	// bytes.Compare function.

	keys := make([]string, 0, len(tags))

	for key, value := range tags {
		// "Tag values cannot be empty; instead, omit the tag from the tag set"
		if value != "" {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	for _, key := range keys {
		buf.WriteByte(',')
		buf.WriteString(EscapeKey(key))
		buf.WriteByte('=')
		buf.WriteString(EscapeKey(tags[key]))
	}
}

func encodeValues(values Values, buf *bytes.Buffer) {
	// Not required by the protocol, but it keeps output reproducible.

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteString(EscapeKey(key))
		buf.WriteByte('=')
		buf.WriteString(values[key])
	}
}
