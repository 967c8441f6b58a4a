// Package influx encodes measurements with the InfluxDB line protocol and
// writes them to the /write endpoint of InfluxDB 1.x servers.
//
// A Measurement is built from typed values (see Value) and encoded at the
// precision of a Target, which also provides the URL and credentials of the
// write request. The resulting WriteRequest is sent by a Sink; Client batches
// measurements and sends them with an HTTPSink.
package influx
