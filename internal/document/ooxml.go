package document

import (
	"archive/zip"
	"fmt"
	pathpkg "path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

func parseZipXML(f *zip.File) (*xmlquery.Node, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return xmlquery.Parse(rc)
}

// extractDOCX joins the runs of each paragraph, one paragraph per line.
func extractDOCX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		root, err := parseZipXML(f)
		if err != nil {
			return "", err
		}
		paras := xmlquery.Find(root, "//*[local-name()='body']//*[local-name()='p']")
		lines := make([]string, 0, len(paras))
		for _, p := range paras {
			var line strings.Builder
			for _, t := range xmlquery.Find(p, ".//*[local-name()='t']") {
				line.WriteString(t.InnerText())
			}
			lines = append(lines, line.String())
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("word/document.xml not found")
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX collects every text run of every slide, in presentation order.
func extractPPTX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	order, err := presentationOrder(files)
	if err != nil {
		return "", err
	}
	if len(order) == 0 {
		order = numberedSlides(r.File)
	}
	if len(order) == 0 {
		return "", fmt.Errorf("no slides found")
	}

	var runs []string
	for _, name := range order {
		root, err := parseZipXML(files[name])
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		for _, t := range xmlquery.Find(root, "//*[local-name()='t']") {
			runs = append(runs, t.InnerText())
		}
	}
	return strings.Join(runs, "\n"), nil
}

// presentationOrder reads p:sldIdLst from ppt/presentation.xml and resolves
// each r:id through ppt/_rels/presentation.xml.rels. It returns nil when the
// deck has no such parts.
func presentationOrder(files map[string]*zip.File) ([]string, error) {
	pres, ok := files["ppt/presentation.xml"]
	if !ok {
		return nil, nil
	}
	rels, ok := files["ppt/_rels/presentation.xml.rels"]
	if !ok {
		return nil, nil
	}

	relRoot, err := parseZipXML(rels)
	if err != nil {
		return nil, fmt.Errorf("presentation rels: %w", err)
	}
	targets := map[string]string{}
	for _, rel := range xmlquery.Find(relRoot, "//*[local-name()='Relationship']") {
		id, target := attr(rel, "Id", false), attr(rel, "Target", false)
		if id == "" || target == "" {
			continue
		}
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = pathpkg.Join("ppt", target)
		}
		targets[id] = target
	}

	presRoot, err := parseZipXML(pres)
	if err != nil {
		return nil, fmt.Errorf("presentation: %w", err)
	}
	var order []string
	for _, sld := range xmlquery.Find(presRoot, "//*[local-name()='sldIdLst']/*[local-name()='sldId']") {
		name, ok := targets[attr(sld, "id", true)]
		if !ok {
			continue
		}
		if _, ok := files[name]; ok {
			order = append(order, name)
		}
	}
	return order, nil
}

// attr finds an attribute by local name; prefixed selects r:id over id.
func attr(n *xmlquery.Node, local string, prefixed bool) string {
	for _, a := range n.Attr {
		if a.Name.Local == local && (a.Name.Space != "") == prefixed {
			return a.Value
		}
	}
	return ""
}

// numberedSlides orders ppt/slides/slideN.xml by N.
func numberedSlides(zf []*zip.File) []string {
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zf {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	out := make([]string, 0, len(slides))
	for _, s := range slides {
		out = append(out, s.name)
	}
	return out
}
