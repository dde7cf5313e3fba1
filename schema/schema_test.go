package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnsignedColumnType(t *testing.T) {
	cases := []struct {
		columnType string
		unsigned   bool
	}{
		{"int(11)", false},
		{"int(10) unsigned", true},
		{"int(10) unsigned zerofill", true},
		{"decimal(10,2) zerofill", true},
		{"varchar(255)", false},
		{"bigint(20) unsigned", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.unsigned, isUnsignedColumnType(c.columnType), c.columnType)
	}
}
