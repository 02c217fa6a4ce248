package passes

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/divan/num2words"

	"imbind/internal/ir"
	"imbind/internal/transform"
)

// KeyEnumWorkaround cleans up the key enum, which does not follow the
// marker convention: an empty forward declaration is dropped and the
// enum prefix is stripped from its constants.
type KeyEnumWorkaround struct {
	Enum   string // "ImGuiKey" when empty
	Prefix string // Enum + "_" when empty
	// SpellDigits turns "0" into "Zero" instead of "_0".
	SpellDigits bool
}

func (KeyEnumWorkaround) Name() string { return "key-enum-workaround" }

func (p KeyEnumWorkaround) Begin() transform.Hooks {
	if p.Enum == "" {
		p.Enum = "ImGuiKey"
	}
	if p.Prefix == "" {
		p.Prefix = p.Enum + "_"
	}
	return &keyEnumHooks{cfg: p}
}

type keyEnumHooks struct {
	transform.Base
	cfg KeyEnumWorkaround
}

func (h *keyEnumHooks) TransformEnum(_ *transform.Context, e *ir.Enum) transform.Result {
	if e.Name == h.cfg.Enum && len(e.Values) == 0 {
		return transform.Remove()
	}
	return transform.Keep()
}

func (h *keyEnumHooks) TransformEnumConstant(ctx *transform.Context, c *ir.EnumConstant) transform.Result {
	parent := ctx.Parent()
	if parent == nil || parent.Common().Name != h.cfg.Enum {
		return transform.Keep()
	}
	if len(c.Name) <= len(h.cfg.Prefix) || !strings.HasPrefix(c.Name, h.cfg.Prefix) {
		return transform.Keep()
	}
	nc := c.Clone()
	nc.Name = LegalizeIdentifier(strings.TrimPrefix(c.Name, h.cfg.Prefix), h.cfg.SpellDigits)
	return transform.Replace(nc)
}

// LegalizeIdentifier makes a name that starts with a digit usable as an
// identifier, either by prefixing an underscore or by spelling out the
// leading number.
func LegalizeIdentifier(name string, spell bool) string {
	if name == "" || !unicode.IsDigit(rune(name[0])) {
		return name
	}
	if !spell {
		return "_" + name
	}
	end := strings.IndexFunc(name, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(name)
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return "_" + name
	}
	return spellNumber(n) + name[end:]
}

func spellNumber(n int) string {
	words := strings.FieldsFunc(num2words.Convert(n), func(r rune) bool {
		return r == ' ' || r == '-'
	})
	var sb strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}
