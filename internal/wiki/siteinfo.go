package wiki

import (
	"fmt"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/mowbray/fieldbot/internal/changelog"
)

// Extensions implements Site: the installed extensions from
// meta=siteinfo&siprop=extensions.
func (c *Client) Extensions() (changelog.ExtensionSet, error) {
	resp, err := c.mw.Get(params.Values{
		"action": "query",
		"meta":   "siteinfo",
		"siprop": "extensions",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch extensions: %w", err)
	}
	list, err := resp.GetObjectArray("query", "extensions")
	if err != nil {
		return nil, fmt.Errorf("fetch extensions: malformed response: %w", err)
	}
	return ExtensionsFromSiteinfo(list), nil
}

// ExtensionsFromSiteinfo converts the siteinfo extension objects into the
// changelog's record form. Attribute values that are not plain strings
// (version numbers, message parameter arrays) are flattened to their JSON
// form, since the change history stores strings only.
func ExtensionsFromSiteinfo(list []*jason.Object) changelog.ExtensionSet {
	extensions := make(changelog.ExtensionSet, 0, len(list))
	for _, obj := range list {
		ext := changelog.Extension{}
		for key, value := range obj.Map() {
			if s, err := value.String(); err == nil {
				ext[key] = s
				continue
			}
			if raw, err := value.Marshal(); err == nil {
				ext[key] = string(raw)
			}
		}
		extensions = append(extensions, ext)
	}
	return extensions
}
