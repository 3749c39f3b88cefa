package mirror

import (
	"encoding/xml"
	"sort"
	"strings"
)

// metalinkXML structs model the Metalink 3.0 XML format served by
// mirrors.fedoraproject.org.
type metalinkXML struct {
	XMLName xml.Name         `xml:"metalink"`
	Files   metalinkFilesXML `xml:"files"`
}

type metalinkFilesXML struct {
	File []metalinkFileXML `xml:"file"`
}

type metalinkFileXML struct {
	Name      string               `xml:"name,attr"`
	Resources metalinkResourcesXML `xml:"resources"`
}

type metalinkResourcesXML struct {
	URLs []metalinkURLXML `xml:"url"`
}

type metalinkURLXML struct {
	Protocol   string `xml:"protocol,attr"`
	Type       string `xml:"type,attr"`
	Location   string `xml:"location,attr"`
	Preference int    `xml:"preference,attr"`
	URL        string `xml:",chardata"`
}

// repomdSuffix is stripped from metalink URLs to obtain the repository URL.
const repomdSuffix = "/repodata/repomd.xml"

// metalinkMirror is a single mirror entry parsed out of a metalink document.
type metalinkMirror struct {
	URL        string
	Country    string
	Protocol   string
	Preference int
}

// parseMetalink parses a Metalink 3.0 XML document and returns the
// HTTP(S) mirrors it references, sorted by preference descending. Non-HTTP
// protocols (rsync, ftp) are skipped since the probe engine can't measure
// them.
func parseMetalink(data []byte) ([]metalinkMirror, error) {
	var ml metalinkXML
	if err := xml.Unmarshal(data, &ml); err != nil {
		return nil, err
	}

	var mirrors []metalinkMirror
	for _, file := range ml.Files.File {
		for _, u := range file.Resources.URLs {
			if u.Protocol != "http" && u.Protocol != "https" {
				continue
			}
			url := strings.TrimSpace(u.URL)
			url = strings.TrimSuffix(url, repomdSuffix)

			mirrors = append(mirrors, metalinkMirror{
				URL:        url,
				Country:    u.Location,
				Protocol:   u.Protocol,
				Preference: u.Preference,
			})
		}
	}

	sort.Slice(mirrors, func(i, j int) bool {
		return mirrors[i].Preference > mirrors[j].Preference
	})

	return mirrors, nil
}
