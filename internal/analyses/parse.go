package analyses

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"legaldocs-backend/internal/llm"
)

var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-•*–]+|\(?\d{1,2}[.)]|\(?[a-zA-Z][.)])\s+`)
	numberPrefix = regexp.MustCompile(`^\d{1,2}[.)]\s*`)
	firstNumber  = regexp.MustCompile(`\d+`)
	severityLead = regexp.MustCompile(`(?i)^\[?(critical|high|medium|moderate|low)\]?\s*(?:risk)?\s*[:\-–)]\s*`)
)

// parseResponse turns model output into a Result. A JSON object is tried
// first and section headed plain text is the fallback.
func parseResponse(raw string) (Result, error) {
	if res, ok := parseJSONResponse(raw); ok && hasCore(res) {
		return res, nil
	}
	res := parseSections(raw)
	if !hasCore(res) {
		return Result{}, ErrSchemaMismatch
	}
	return res, nil
}

func hasCore(res Result) bool {
	return strings.TrimSpace(res.Summary) != "" || len(res.KeyPoints) > 0
}

func parseJSONResponse(raw string) (Result, bool) {
	s := llm.StripCodeFence(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return Result{}, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return Result{}, false
	}
	f := normalizeKeys(obj)

	res := Result{
		Summary:               joinedString(lookup(f, "summary", "documentsummary", "executivesummary")),
		KeyPoints:             stringList(lookup(f, "keypoints", "mainpoints", "keyprovisions")),
		SimplifiedExplanation: joinedString(lookup(f, "simplifiedexplanation", "simplified", "plainenglish")),
		Recommendations:       stringList(lookup(f, "recommendations", "suggestions")),
		RiskFlags:             compactRisks(decodeList[RiskFlag](lookup(f, "riskflags", "risks", "potentialrisks"))),
		Entities:              compactEntities(decodeList[Entity](lookup(f, "entities", "keyentities", "legalentities"))),
		Timeline:              compactTimeline(decodeList[TimelineEvent](lookup(f, "timeline", "keydates"))),
	}

	insights := f
	if nested := lookup(f, "insights", "legalinsights"); len(nested) > 0 {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			insights = normalizeKeys(inner)
		}
	}
	res.Insights = Insights{
		ComplexityScore: parseScore(scalarString(lookup(insights, "complexityscore", "complexity"))),
		LegalAreas:      stringList(lookup(insights, "legalareas", "areas", "areasoflaw")),
		Sentiment:       scalarString(lookup(insights, "sentiment", "tone")),
		ImportantDates:  stringList(lookup(insights, "importantdates", "dates", "deadlines")),
	}
	return res, true
}

// UnmarshalJSON accepts either a plain string or an object.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = entityFromLine(s)
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f := normalizeKeys(obj)
	e.Type = strings.ToLower(scalarString(lookup(f, "type", "category", "kind")))
	e.Value = scalarString(lookup(f, "value", "name", "text", "entity"))
	return nil
}

// UnmarshalJSON accepts either a plain string or an object.
func (r *RiskFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = riskFromLine(s)
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f := normalizeKeys(obj)
	r.Severity = normalizeSeverity(scalarString(lookup(f, "severity", "level", "risklevel")))
	r.Description = scalarString(lookup(f, "description", "risk", "issue", "text"))
	r.Clause = scalarString(lookup(f, "clause", "section", "reference"))
	return nil
}

// UnmarshalJSON accepts either a plain string or an object.
func (t *TimelineEvent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = timelineFromLine(s)
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f := normalizeKeys(obj)
	t.Date = scalarString(lookup(f, "date", "when", "deadline"))
	t.Description = scalarString(lookup(f, "description", "event", "obligation", "text"))
	return nil
}

func normalizeKeys(obj map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		key := strings.ToLower(k)
		key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
		out[key] = v
	}
	return out
}

func lookup(f map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := f[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// scalarString renders a JSON string, number or bool as text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func joinedString(raw json.RawMessage) string {
	if s := scalarString(raw); s != "" {
		return s
	}
	return strings.Join(stringList(raw), "\n")
}

// stringList accepts an array of strings or objects, or one string with a
// line per item.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s := scalarString(raw)
		if s == "" {
			return nil
		}
		if strings.Contains(s, "\n") {
			return bulletLines(strings.Split(s, "\n"))
		}
		return []string{s}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := scalarString(item)
		if s == "" {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err == nil {
				s = scalarString(lookup(normalizeKeys(obj), "text", "point", "description", "value", "title", "name"))
			}
		}
		if s = stripBullet(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeList[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func compactEntities(in []Entity) []Entity {
	out := in[:0]
	for _, e := range in {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func compactRisks(in []RiskFlag) []RiskFlag {
	out := in[:0]
	for _, r := range in {
		if r.Description != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func compactTimeline(in []TimelineEvent) []TimelineEvent {
	out := in[:0]
	for _, t := range in {
		if t.Description != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseScore takes the first integer in s; 0 means no usable score.
func parseScore(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil || v < 1 || v > 10 {
		return 0
	}
	return v
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "high":
		return "high"
	case "medium", "moderate":
		return "medium"
	case "low":
		return "low"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyPoints
	sectionInsights
	sectionSimplified
	sectionRecommendations
	sectionRisks
	sectionEntities
	sectionTimeline
)

// Longer headers come before their prefixes.
var sectionHeaders = []struct {
	prefix string
	sec    section
}{
	{"DOCUMENT SUMMARY", sectionSummary},
	{"EXECUTIVE SUMMARY", sectionSummary},
	{"SUMMARY", sectionSummary},
	{"KEY POINTS", sectionKeyPoints},
	{"MAIN POINTS", sectionKeyPoints},
	{"KEY ENTITIES", sectionEntities},
	{"LEGAL ENTITIES", sectionEntities},
	{"ENTITIES", sectionEntities},
	{"LEGAL INSIGHTS", sectionInsights},
	{"INSIGHTS", sectionInsights},
	{"SIMPLIFIED", sectionSimplified},
	{"PLAIN ENGLISH", sectionSimplified},
	{"RECOMMENDATIONS", sectionRecommendations},
	{"SUGGESTIONS", sectionRecommendations},
	{"RISK FLAGS", sectionRisks},
	{"RISK ASSESSMENT", sectionRisks},
	{"POTENTIAL RISKS", sectionRisks},
	{"RISKS", sectionRisks},
	{"TIMELINE", sectionTimeline},
	{"KEY DATES", sectionTimeline},
}

// parseSections reads free text organised under headers such as
// "1. DOCUMENT SUMMARY:" or "## Key Points".
func parseSections(raw string) Result {
	var res Result
	current := sectionNone
	var content []string

	flush := func() {
		if current != sectionNone && len(content) > 0 {
			applySection(&res, current, content)
		}
		content = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if sec, rest, ok := matchHeader(line); ok {
			flush()
			current = sec
			if rest != "" {
				content = append(content, rest)
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.Trim(line, "-=*_ ") == "" {
			continue
		}
		content = append(content, strings.ReplaceAll(line, "**", ""))
	}
	flush()
	return res
}

func matchHeader(line string) (section, string, bool) {
	if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
		return sectionNone, "", false
	}
	s := strings.TrimLeft(line, "#* ")
	s = numberPrefix.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, "* ")
	for _, h := range sectionHeaders {
		n := len(h.prefix)
		if len(s) < n || !strings.EqualFold(s[:n], h.prefix) {
			continue
		}
		rest := s[n:]
		if rest != "" && !strings.ContainsAny(rest[:1], " :*#)") {
			continue
		}
		trimmed := strings.TrimLeft(rest, "*# ")
		switch {
		case trimmed == "":
			return h.sec, "", true
		case strings.HasPrefix(trimmed, ":"):
			return h.sec, strings.TrimSpace(strings.Trim(trimmed[1:], "* ")), true
		}
		if before, after, ok := strings.Cut(s, ":"); ok && len(before) <= 40 {
			return h.sec, strings.TrimSpace(strings.Trim(after, "* ")), true
		}
		if strings.ToUpper(s) == s {
			return h.sec, "", true
		}
	}
	return sectionNone, "", false
}

func applySection(res *Result, sec section, lines []string) {
	switch sec {
	case sectionSummary:
		res.Summary = strings.TrimSpace(strings.Join(lines, "\n"))
	case sectionKeyPoints:
		res.KeyPoints = bulletLines(lines)
	case sectionSimplified:
		res.SimplifiedExplanation = strings.TrimSpace(strings.Join(lines, "\n"))
	case sectionRecommendations:
		res.Recommendations = bulletLines(lines)
	case sectionInsights:
		applyInsightLines(res, lines)
	case sectionRisks:
		for _, l := range bulletLines(lines) {
			res.RiskFlags = append(res.RiskFlags, riskFromLine(l))
		}
	case sectionEntities:
		for _, l := range bulletLines(lines) {
			res.Entities = append(res.Entities, entityFromLine(l))
		}
	case sectionTimeline:
		for _, l := range bulletLines(lines) {
			res.Timeline = append(res.Timeline, timelineFromLine(l))
		}
	}
}

func applyInsightLines(res *Result, lines []string) {
	for _, raw := range lines {
		line := stripBullet(raw)
		lower := strings.ToLower(line)
		_, value, hasValue := strings.Cut(line, ":")
		value = strings.TrimSpace(value)
		switch {
		case strings.Contains(lower, "complexity"):
			if score := parseScore(value); score > 0 {
				res.Insights.ComplexityScore = score
			} else if score := parseScore(line); score > 0 {
				res.Insights.ComplexityScore = score
			}
		case strings.Contains(lower, "area") && hasValue:
			res.Insights.LegalAreas = splitList(value, ",")
		case strings.Contains(lower, "sentiment") || strings.Contains(lower, "tone"):
			if hasValue {
				res.Insights.Sentiment = value
			} else {
				res.Insights.Sentiment = "Neutral"
			}
		case (strings.Contains(lower, "date") || strings.Contains(lower, "deadline")) && hasValue:
			res.Insights.ImportantDates = splitList(value, ";")
		case strings.Contains(lower, "risk") && hasValue && value != "":
			res.RiskFlags = append(res.RiskFlags, riskFromLine(value))
		}
	}
}

func bulletLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := stripBullet(l); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	s = bulletPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ".")); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func riskFromLine(s string) RiskFlag {
	s = stripBullet(s)
	if m := severityLead.FindStringSubmatch(s); m != nil {
		return RiskFlag{Severity: normalizeSeverity(m[1]), Description: strings.TrimSpace(s[len(m[0]):])}
	}
	return RiskFlag{Description: s}
}

func entityFromLine(s string) Entity {
	s = stripBullet(s)
	if kind, value, ok := strings.Cut(s, ":"); ok && len(strings.Fields(kind)) <= 3 && strings.TrimSpace(value) != "" {
		return Entity{Type: strings.ToLower(strings.TrimSpace(kind)), Value: strings.TrimSpace(value)}
	}
	return Entity{Value: s}
}

func timelineFromLine(s string) TimelineEvent {
	s = stripBullet(s)
	for _, sep := range []string{": ", " - ", " – "} {
		if date, desc, ok := strings.Cut(s, sep); ok && strings.TrimSpace(desc) != "" {
			return TimelineEvent{Date: strings.TrimSpace(date), Description: strings.TrimSpace(desc)}
		}
	}
	return TimelineEvent{Description: s}
}
