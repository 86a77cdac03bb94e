package mcp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/folio-sh/folio/internal/comments"
	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/editor"
	"github.com/folio-sh/folio/internal/gallery"
	"github.com/folio-sh/folio/internal/path"
	"github.com/folio-sh/folio/internal/rules"
	"github.com/folio-sh/folio/internal/store"
)

// Binding connects the MCP server to the content store. The stdio
// transport carries a single client, so one draft at a time.
type Binding struct {
	store    *store.Store
	rules    *rules.Engine
	comments comments.Gateway
	mu       sync.Mutex
	edit     *editor.Session
}

// NewBinding creates a binding over the given store, rule engine and
// comment gateway.
func NewBinding(contentStore *store.Store, ruleEngine *rules.Engine, gateway comments.Gateway) *Binding {
	return &Binding{
		store:    contentStore,
		rules:    ruleEngine,
		comments: gateway,
	}
}

// Register wires the folio resources and tools into s.
func (b *Binding) Register(s *Server) {
	s.RegisterResource(ContentResource().WithHandler(b.readContent))
	root, _ := b.store.Current()
	if rec, ok := root.(content.Record); ok {
		for _, key := range rec.Keys() {
			if _, isList := rec[key].(content.List); isList {
				collection := key
				s.RegisterResource(GalleryResource(collection).WithHandler(func() (interface{}, error) {
					return b.readGallery(collection)
				}))
			}
		}
	}

	s.RegisterTool(GetContentTool().WithHandler(b.getContent))
	s.RegisterTool(BeginEditTool().WithHandler(b.beginEdit))
	s.RegisterTool(SetFieldTool().WithHandler(b.setField))
	s.RegisterTool(AddListItemTool().WithHandler(b.addListItem))
	s.RegisterTool(RemoveListItemTool().WithHandler(b.removeListItem))
	s.RegisterTool(CommitTool().WithHandler(b.commit))
	s.RegisterTool(DiscardTool().WithHandler(b.discard))
	s.RegisterTool(ListCommentsTool().WithHandler(b.listComments))
	s.RegisterTool(AddCommentTool().WithHandler(b.addComment))
}

func (b *Binding) readContent() (interface{}, error) {
	root, revision := b.store.Current()
	return map[string]interface{}{
		"revision": revision,
		"tree":     content.ToValue(root),
	}, nil
}

func (b *Binding) readGallery(collection string) (interface{}, error) {
	root, _ := b.store.Current()
	rec, ok := root.(content.Record)
	if !ok {
		return nil, errors.New("content root is not a record")
	}
	list, ok := rec[collection].(content.List)
	if !ok {
		return nil, fmt.Errorf("no collection %q", collection)
	}
	items := gallery.CollectionFromList(list)
	return map[string]interface{}{
		"items":      items,
		"vocabulary": gallery.Vocabulary(items),
	}, nil
}

func (b *Binding) getContent(args map[string]interface{}) (interface{}, error) {
	root, revision := b.store.Current()
	pathStr, _ := args["path"].(string)
	if pathStr == "" {
		return map[string]interface{}{"revision": revision, "value": content.ToValue(root)}, nil
	}
	p, err := path.Parse(pathStr)
	if err != nil {
		return nil, err
	}
	node, lookupErr := editor.Lookup(root, p)
	if lookupErr != nil {
		return nil, lookupErr
	}
	return map[string]interface{}{"revision": revision, "value": content.ToValue(node)}, nil
}

func (b *Binding) beginEdit(args map[string]interface{}) (interface{}, error) {
	pathStr, _ := args["path"].(string)
	p, err := path.Parse(pathStr)
	if err != nil {
		return nil, err
	}

	root, _ := b.store.Current()
	sess, err := editor.BeginEdit(root, p, nil)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.edit = sess
	b.mu.Unlock()

	return map[string]interface{}{
		"path":        p.String(),
		"isNew":       sess.IsNew,
		"draft":       content.ToValue(sess.Draft),
		"affordances": editor.DescribeDraft(sess.Draft),
	}, nil
}

func (b *Binding) setField(args map[string]interface{}) (interface{}, error) {
	sess, err := b.currentEdit()
	if err != nil {
		return nil, err
	}
	field, _ := args["field"].(string)
	value, err := content.FromValue(args["value"])
	if err != nil {
		return nil, err
	}
	if err := sess.SetField(field, value); err != nil {
		return nil, err
	}
	return map[string]interface{}{"draft": content.ToValue(sess.Draft)}, nil
}

func (b *Binding) addListItem(args map[string]interface{}) (interface{}, error) {
	sess, err := b.currentEdit()
	if err != nil {
		return nil, err
	}
	fieldPath, err := path.Parse(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}
	var defaultValue content.Node
	if raw, ok := args["default"]; ok {
		defaultValue, err = content.FromValue(raw)
		if err != nil {
			return nil, err
		}
	}
	if err := sess.AddListItem(fieldPath, defaultValue); err != nil {
		return nil, err
	}
	return map[string]interface{}{"draft": content.ToValue(sess.Draft)}, nil
}

func (b *Binding) removeListItem(args map[string]interface{}) (interface{}, error) {
	sess, err := b.currentEdit()
	if err != nil {
		return nil, err
	}
	fieldPath, err := path.Parse(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}
	index, ok := args["index"].(float64)
	if !ok {
		return nil, errors.New("index is required")
	}
	if err := sess.RemoveListItem(fieldPath, int(index)); err != nil {
		return nil, err
	}
	return map[string]interface{}{"draft": content.ToValue(sess.Draft)}, nil
}

func (b *Binding) commit(args map[string]interface{}) (interface{}, error) {
	b.mu.Lock()
	sess := b.edit
	b.mu.Unlock()
	if sess == nil {
		return nil, errors.New("no open edit session")
	}

	if draft, ok := sess.Draft.(content.Record); ok {
		kind := ""
		if len(sess.TargetPath.Segments) > 0 && sess.TargetPath.Segments[0].Type == path.SegmentField {
			kind = sess.TargetPath.Segments[0].Field
		}
		if err := b.rules.Validate(kind, draft); err != nil {
			return nil, err
		}
	}

	root, _ := b.store.Current()
	newRoot, err := sess.Commit(root)
	if err != nil {
		return nil, err
	}
	revision, err := b.store.Replace(newRoot)
	if err != nil {
		// Persistence failed; the draft stays open for retry.
		return nil, err
	}

	b.mu.Lock()
	b.edit = nil
	b.mu.Unlock()

	return map[string]interface{}{"revision": revision}, nil
}

func (b *Binding) discard(args map[string]interface{}) (interface{}, error) {
	b.mu.Lock()
	if b.edit != nil {
		b.edit.Discard()
		b.edit = nil
	}
	b.mu.Unlock()
	return map[string]interface{}{"discarded": true}, nil
}

func (b *Binding) listComments(args map[string]interface{}) (interface{}, error) {
	itemID := stringArg(args, "itemId")
	if itemID == "" {
		return nil, errors.New("itemId is required")
	}
	list, err := b.comments.List(itemID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"comments": list}, nil
}

func (b *Binding) addComment(args map[string]interface{}) (interface{}, error) {
	itemID := stringArg(args, "itemId")
	if itemID == "" {
		return nil, errors.New("itemId is required")
	}
	comment, err := b.comments.Append(itemID, stringArg(args, "name"), stringArg(args, "message"))
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (b *Binding) currentEdit() (*editor.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.edit == nil {
		return nil, errors.New("no open edit session")
	}
	return b.edit, nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}
