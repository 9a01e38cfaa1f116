package explorer

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/abiosoft/mold"
	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates/*
	templateFS embed.FS

	//go:embed assets/css/style.css
	cssContent string

	// viewEngine renders pages inside base_layout.html. Mold parses
	// everything under templates/ itself.
	viewEngine mold.Engine

	// TemplateFuncMap contains custom template functions available globally
	TemplateFuncMap = template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"markdown": func(text string) template.HTML {
			// Convert markdown to HTML using blackfriday v2
			return template.HTML(blackfriday.Run([]byte(text)))
		},
		"hearts": func(rating int) string {
			if rating < 0 {
				rating = 0
			}
			return strings.Repeat("❤", rating)
		},
	}
)

func init() {
	var err error
	viewEngine, err = mold.New(templateFS,
		mold.WithRoot("templates"),
		mold.WithLayout("base_layout.html"),
		mold.WithFuncMap(TemplateFuncMap),
	)
	if err != nil {
		panic(err)
	}
}

// RenderPage renders a page view in the shared layout with the CSS
// injected.
func RenderPage(w io.Writer, pageName string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["CSS"] = template.CSS(cssContent)
	return viewEngine.Render(w, "pages/"+pageName, data)
}
