package postgres_test

import "database/sql/driver"

func toDriver(in []any) []driver.Value {
	out := make([]driver.Value, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
