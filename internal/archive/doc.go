// Package archive knows the naming conventions of the RADOLAN RW archives
// published by the DWD open-data server.
//
// Two schemes exist:
//
//	current  RW-YYYYMMDD.tar.gz   one archive per day   (recent endpoint)
//	legacy   RW-YYYYMM.tar        one archive per month (historical endpoint)
//
// Names are derived purely from a date and a scheme, so membership tests
// never need any other metadata. The package also owns the requested date
// range and the expected-file enumerator built on top of it.
package archive
