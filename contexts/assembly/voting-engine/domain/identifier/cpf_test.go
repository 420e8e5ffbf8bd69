package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAcceptsKnownIdentifiers(t *testing.T) {
	for _, raw := range []string{
		"111.444.777-35",
		"11144477735",
		"529.982.247-25",
		"52998224725",
		"123.456.789-09",
	} {
		assert.Truef(t, IsValid(raw), "expected %q to be valid", raw)
	}
}

func TestIsValidRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"letters only":     "abc.def.ghi-jk",
		"too short":        "1114447773",
		"too long":         "111444777350",
		"wrong first":      "111.444.777-45",
		"wrong second":     "111.444.777-36",
		"bad checksum":     "123.456.789-01",
		"all zeros":        "000.000.000-00",
		"all identical":    "111.111.111-11",
		"identical digits": "99999999999",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, IsValid(raw))
		})
	}
}

func TestIsValidIgnoresFormatting(t *testing.T) {
	candidates := []string{
		"11144477735",
		"12345678901",
		"52998224725",
		"00000000191",
		"98765432100",
	}
	for _, digits := range candidates {
		decorated := digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
		assert.Equal(t, IsValid(digits), IsValid(decorated), digits)
		assert.Equal(t, IsValid(digits), IsValid(" "+strings.Join(strings.Split(digits, ""), " ")+" "), digits)
	}
}

func TestAllIdenticalDigitsAlwaysFail(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		assert.False(t, IsValid(strings.Repeat(string(d), Length)))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "11144477735", Normalize("111.444.777-35"))
	assert.Equal(t, "", Normalize("--."))
	assert.Equal(t, "123", Normalize("a1b2c3"))
}
