package models

// CMSConfig is the optional description of the site being edited.
type CMSConfig struct {
	Locales      []string `yaml:"locales" toml:"locales" json:"locales"`
	MediaFolder  string   `yaml:"media_folder" toml:"media_folder" json:"media_folder"`
	PublicFolder string   `yaml:"public_folder" toml:"public_folder" json:"public_folder"`
	Pages        []Page   `yaml:"pages" toml:"pages" json:"pages"`
}

// Page lists the sections of one page the editor may open.
type Page struct {
	Name     string    `yaml:"name" toml:"name" json:"name"`
	Label    string    `yaml:"label" toml:"label" json:"label,omitempty"`
	Sections []Section `yaml:"sections" toml:"sections" json:"sections"`
}

type Section struct {
	Key   string `yaml:"key" toml:"key" json:"key"`
	Label string `yaml:"label" toml:"label" json:"label,omitempty"`
}

// FindPage returns the page called name, if configured.
func (c *CMSConfig) FindPage(name string) (*Page, bool) {
	for i := range c.Pages {
		if c.Pages[i].Name == name {
			return &c.Pages[i], true
		}
	}
	return nil, false
}

// HasSection reports whether key is one of the page's sections. A page with
// no sections listed accepts any key.
func (p *Page) HasSection(key string) bool {
	if len(p.Sections) == 0 {
		return true
	}
	for _, s := range p.Sections {
		if s.Key == key {
			return true
		}
	}
	return false
}
