package normalize

import (
	"log/slog"
	"strings"
)

var vendorSubstitutions = Substitutions{
	{"ADB / Pirelli", "pirelli"},
	{"Airlive / Ovislink", "airlive"},
	{"Inseego / Novatel", "inseego"},
	{"n a", "vocore"},
	{"EnGenius / Senao", "engenius"},
	{"Technicolor / Thomson", "technicolor"},
}

var vendorReplacements = Rules{
	{"&amp;", "%26"},
	{"&", "%26"},
	{"@", "%40"},
	{" ", "_"},
	{"-", "_"},
	{"'", "%27"},
	{"(", "%28"},
	{")", "%29"},
	{"+", "%2b"},
}

// Known malformed model names that generic replacement would not repair.
var productSubstitutions = Substitutions{
	{"WS325 &#65279;", "WS325"},
	{"P-660H-T1 v2 \t V3.40", "P-660H-T1 v2 V3.40"},
	{"TEW-652BRP H W:V1.OR", "TEW-652BRP"},
	{"TEW-652BRP h w:v3.2r 3.00b13", "TEW-652BRP"},
}

var productReplacements = Rules{
	{"(??)", ""},
	{" / ", "_"},
	{"&amp;", "%26"},
	{"@", "%40"},
	{"!", "%21"},
	{" ", "_"},
	{"-", "_"},
	{"'", "%27"},
	{"(", "%28"},
	{")", "%29"},
	{",", ""},
	{"?", ""},
	{"&", "%26"},
	{"+", "%2b"},
	{"/", "_"},
}

// Vendor turns a brand name into a vendor slug.
func (n *Normalizer) Vendor(name string) string {
	return n.slug("vendor", name, vendorSubstitutions, vendorReplacements)
}

// Product turns a model name into a product slug.
func (n *Normalizer) Product(name string) string {
	return n.slug("product", name, productSubstitutions, productReplacements)
}

func (n *Normalizer) slug(field, name string, subs Substitutions, rules Rules) string {
	out := rules.Apply(subs.Apply(name))
	if invalidChars(out) {
		n.logger.Warn("unexpected characters in name",
			slog.String("field", field),
			slog.String("name", name),
			slog.String("slug", out),
		)
		out = escapeInvalid(out)
	}
	return strings.ToLower(out)
}
