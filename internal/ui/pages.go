package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"

	"scouthub/internal/csvsink"
	"scouthub/internal/domain"
	"scouthub/internal/schema"
	"scouthub/internal/service/analytics"
	"scouthub/internal/service/ingestion"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

const pageCSS = `body{font-family:system-ui,sans-serif;margin:0;background:#f6f8fa;color:#1f2328}
nav{background:#24292f;padding:.6rem 1rem}nav a{color:#fff;margin-right:1rem;text-decoration:none}nav a.active{font-weight:600;text-decoration:underline}
main{max-width:60rem;margin:1rem auto;padding:0 1rem}.card{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:1rem;margin-bottom:1rem}
fieldset{border:1px solid #d0d7de;border-radius:6px;margin-bottom:.8rem}label{display:block;margin:.4rem 0 .1rem}
input[type=number],input[type=text],select,textarea{width:100%;max-width:24rem;padding:.3rem}textarea{max-width:100%;min-height:4rem}
.muted{color:#656d76;font-size:.85rem}.flash{padding:.6rem;border-radius:6px;margin-bottom:1rem}.flash.ok{background:#dafbe1}.flash.err{background:#ffebe9}
table{border-collapse:collapse;width:100%}th,td{border-bottom:1px solid #d0d7de;padding:.3rem .5rem;text-align:left;font-size:.9rem}pre{white-space:pre-wrap;background:#f6f8fa;padding:.5rem}`

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "Scout a match", Href: "/ui/", Key: "form"},
	{Label: "Ask", Href: "/ui/ask", Key: "ask"},
	{Label: "Submissions", Href: "/ui/records", Key: "records"},
}

func appPage(title, active string, body ...gomponents.Node) gomponents.Node {
	nav := make([]gomponents.Node, 0, len(navItems))
	for _, item := range navItems {
		nav = append(nav, html.A(
			html.Href(item.Href),
			gomponents.If(item.Key == active, html.Class("active")),
			gomponents.Text(item.Label),
		))
	}
	return html.Doctype(html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Scouting Hub")),
			html.Link(html.Rel("icon"), html.Href("data:,")),
			html.StyleEl(gomponents.Raw(pageCSS)),
			html.Script(html.Type("module"), html.Src(datastarScript)),
		),
		html.Body(
			html.Nav(gomponents.Group(nav)),
			html.Main(
				html.H1(gomponents.Text(title)),
				gomponents.Group(body),
			),
		),
	))
}

func errorPage(title, message string) gomponents.Node {
	return appPage(title, "", html.Div(html.Class("card"), html.P(gomponents.Text(message))))
}

// scoutingFormPage renders one input per non-derived descriptor column,
// grouped by name prefix (auto_, teleop_, endgame_).
func scoutingFormPage(desc *schema.Descriptor, res *ingestion.SubmitResult, formErr string, csrf gomponents.Node) gomponents.Node {
	var flash gomponents.Node
	switch {
	case formErr != "":
		flash = html.Div(html.Class("flash err"), gomponents.Text("Submission rejected: "+formErr))
	case res != nil:
		flash = html.Div(html.Class("flash ok"),
			gomponents.Textf("Saved submission %s. CSV: %s. Database: %s.", res.ID, res.CSVStatus, res.DBStatus),
			gomponents.If(res.Record != nil, html.P(html.Class("muted"),
				gomponents.Textf("Team %s, match %s, %s points.",
					csvsink.FormatValue(res.Record["team"]),
					csvsink.FormatValue(res.Record["match_number"]),
					csvsink.FormatValue(res.Record["total_points"]))),
			),
		)
	}

	var sections []gomponents.Node
	var current []gomponents.Node
	currentPhase := ""
	flush := func() {
		if len(current) == 0 {
			return
		}
		sections = append(sections, html.FieldSet(
			html.Legend(gomponents.Text(phaseTitle(currentPhase))),
			gomponents.Group(current),
		))
		current = nil
	}
	for _, c := range desc.Columns {
		if c.Derived {
			continue
		}
		if p := phaseOf(c.Name); p != currentPhase {
			flush()
			currentPhase = p
		}
		current = append(current, columnInput(c))
	}
	flush()

	return appPage("Scout a match", "form",
		gomponents.If(flash != nil, flash),
		html.Div(html.Class("card"),
			html.Form(
				html.Method("post"),
				html.Action("/ui/submit"),
				csrf,
				gomponents.Group(sections),
				html.Button(html.Type("submit"), gomponents.Text("Submit")),
			),
		),
	)
}

func columnInput(c schema.Column) gomponents.Node {
	id := "f-" + c.Name
	label := html.Label(html.For(id), gomponents.Text(columnLabel(c)))
	hint := gomponents.If(c.Description != "", html.Div(html.Class("muted"), gomponents.Text(c.Description)))

	switch {
	case c.Type == schema.TypeBoolean:
		return html.Label(
			html.Input(html.Type("checkbox"), html.ID(id), html.Name(c.Name), html.Value("on")),
			gomponents.Text(" "+columnLabel(c)),
		)
	case len(c.Enum) > 0:
		options := []gomponents.Node{html.Option(html.Value(""), gomponents.Text("(not recorded)"))}
		for _, e := range c.Enum {
			options = append(options, html.Option(html.Value(e.Value), gomponents.Text(enumLabel(e))))
		}
		return html.Div(label, html.Select(html.ID(id), html.Name(c.Name), gomponents.Group(options)), hint)
	case c.Type == schema.TypeInteger:
		return html.Div(label, html.Input(
			html.Type("number"), html.ID(id), html.Name(c.Name), html.Step("1"),
			gomponents.If(!c.Required, html.Min("0")),
			gomponents.If(c.Required, html.Required()),
		), hint)
	case c.Type == schema.TypeReal:
		return html.Div(label, html.Input(html.Type("number"), html.ID(id), html.Name(c.Name), html.Step("any")), hint)
	case c.Name == "comments":
		return html.Div(label, html.Textarea(html.ID(id), html.Name(c.Name)), hint)
	default:
		return html.Div(label, html.Input(html.Type("text"), html.ID(id), html.Name(c.Name)), hint)
	}
}

func columnLabel(c schema.Column) string {
	label := strings.ReplaceAll(c.Name, "_", " ")
	if c.Points != 0 {
		label += fmt.Sprintf(" (%s pts)", strconv.FormatFloat(c.Points, 'f', -1, 64))
	}
	if c.Required {
		label += " *"
	}
	return label
}

func enumLabel(e schema.EnumValue) string {
	if e.Points == 0 {
		return e.Value
	}
	return fmt.Sprintf("%s (%s pts)", e.Value, strconv.FormatFloat(e.Points, 'f', -1, 64))
}

func phaseOf(name string) string {
	for _, p := range []string{"auto", "teleop", "endgame"} {
		if strings.HasPrefix(name, p+"_") {
			return p
		}
	}
	return ""
}

func phaseTitle(phase string) string {
	switch phase {
	case "auto":
		return "Autonomous"
	case "teleop":
		return "Teleop"
	case "endgame":
		return "Endgame"
	default:
		return "Match"
	}
}

func askPage(question string, ans *analytics.Answer, askErr error, csrf gomponents.Node) gomponents.Node {
	form := html.Div(html.Class("card"),
		html.Form(
			html.Method("post"),
			html.Action("/ui/ask"),
			csrf,
			html.Label(html.For("question"), gomponents.Text("Question")),
			html.Textarea(html.ID("question"), html.Name("question"), html.Required(),
				html.Placeholder("Which teams averaged the most teleop points?"), gomponents.Text(question)),
			html.Button(html.Type("submit"), gomponents.Text("Ask")),
		),
	)

	var result gomponents.Node
	switch {
	case askErr != nil:
		var gate *domain.GateError
		var exec *domain.ExecError
		query := ""
		if errors.As(askErr, &gate) {
			query = gate.Candidate
		} else if errors.As(askErr, &exec) {
			query = exec.Query
		}
		result = html.Div(html.Class("card"),
			html.Div(html.Class("flash err"), gomponents.Text(askErr.Error())),
			gomponents.If(query != "", html.Pre(gomponents.Text(query))),
		)
	case ans != nil:
		result = answerCard(ans)
	}

	return appPage("Ask the data", "ask", form, gomponents.If(result != nil, result))
}

func answerCard(ans *analytics.Answer) gomponents.Node {
	header := make([]gomponents.Node, 0, len(ans.Columns))
	for _, c := range ans.Columns {
		header = append(header, html.Th(gomponents.Text(c)))
	}
	rows := make([]gomponents.Node, 0, len(ans.Data))
	for _, row := range ans.Data {
		cells := make([]gomponents.Node, 0, len(ans.Columns))
		for _, c := range ans.Columns {
			cells = append(cells, html.Td(gomponents.Text(csvsink.FormatValue(row[c]))))
		}
		rows = append(rows, html.Tr(gomponents.Group(cells)))
	}

	meta := fmt.Sprintf("%d row(s)", len(ans.Data))
	if ans.Truncated {
		meta += ", result truncated"
	}
	return html.Div(html.Class("card"),
		html.P(gomponents.Text(ans.Summary)),
		html.Details(
			html.Summary(gomponents.Text("Query")),
			html.Pre(gomponents.Text(ans.Query)),
			gomponents.If(len(ans.Fixups) > 0, html.P(html.Class("muted"), gomponents.Text("Fixups: "+strings.Join(ans.Fixups, ", ")))),
		),
		gomponents.If(len(ans.Data) > 0, gomponents.Group([]gomponents.Node{
			html.P(html.Class("muted"), gomponents.Text(meta)),
			html.Table(html.THead(html.Tr(gomponents.Group(header))), html.TBody(gomponents.Group(rows))),
		})),
	)
}

func recordsPage(entries []domain.AuditEntry) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(entries))
	for _, e := range entries {
		team := csvsink.FormatValue(e.Record["team"])
		match := csvsink.FormatValue(e.Record["match_number"])
		rows = append(rows, html.Tr(
			data.Show(containsExpr(team+" "+match+" "+e.Source+" "+e.CSVStatus+" "+e.DBStatus)),
			html.Td(gomponents.Text(e.ReceivedAt.Format(time.RFC3339))),
			html.Td(gomponents.Text(e.Source)),
			html.Td(gomponents.Text(team)),
			html.Td(gomponents.Text(match)),
			html.Td(gomponents.Text(csvsink.FormatValue(e.Record["total_points"]))),
			html.Td(gomponents.Text(e.CSVStatus)),
			html.Td(gomponents.Text(e.DBStatus)),
		))
	}

	var body gomponents.Node = html.P(html.Class("muted"), gomponents.Text("No submissions yet."))
	if len(rows) > 0 {
		body = html.Table(
			html.THead(html.Tr(
				html.Th(gomponents.Text("Received")), html.Th(gomponents.Text("Source")),
				html.Th(gomponents.Text("Team")), html.Th(gomponents.Text("Match")),
				html.Th(gomponents.Text("Points")), html.Th(gomponents.Text("CSV")), html.Th(gomponents.Text("Database")),
			)),
			html.TBody(gomponents.Group(rows)),
		)
	}

	return appPage("Submissions", "records",
		html.Div(html.Class("card"),
			data.Signals(map[string]any{"q": ""}),
			html.Label(gomponents.Text("Quick filter")),
			html.Input(html.Type("text"), data.Bind("q"), html.Placeholder("Filter by team, match, or status")),
			html.P(html.Class("muted"), gomponents.Textf("%d submission(s) retained, newest first.", len(entries))),
			body,
		),
	)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}
