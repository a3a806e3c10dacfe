package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocumentsAreValidJSON(t *testing.T) {
	for _, name := range []string{StorefrontInstance, BackofficeInstance} {
		doc, err := swag.ReadDoc(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var parsed struct {
			Info  struct{ Title string } `json:"info"`
			Paths map[string]any        `json:"paths"`
		}
		if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
			t.Fatalf("%s: json inválido: %v", name, err)
		}
		if parsed.Info.Title == "" || len(parsed.Paths) == 0 {
			t.Fatalf("%s: documento incompleto: %+v", name, parsed.Info)
		}
	}
}
