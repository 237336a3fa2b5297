// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. A binary that should support only
// a subset of backends can blank-import the individual backend packages
// instead.
package all

import (
	_ "procan/internal/storage/mysql"
	_ "procan/internal/storage/postgres"
	_ "procan/internal/storage/sqlite"
)
