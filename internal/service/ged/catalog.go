package ged

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"lexged/internal/config"
	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
	gedRepo "lexged/internal/domain/repositories/ged"
	gedSvc "lexged/internal/domain/services/ged"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var builtinFiles embed.FS

type templateCatalog struct {
	builtins []*models.FolderTemplate
	byID     map[string]*models.FolderTemplate
	store    gedRepo.TemplateStore
	logger   *slog.Logger
}

// NewTemplateCatalog loads the built-in templates from the embedded YAML
// files and wires the append-only store for custom templates. Built-ins are
// immutable after this point, so reads need no locking.
func NewTemplateCatalog(store gedRepo.TemplateStore, logger *slog.Logger) (gedSvc.TemplateCatalog, error) {
	entries, err := fs.Glob(builtinFiles, "templates/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob builtin templates: %w", err)
	}
	sort.Strings(entries)

	c := &templateCatalog{
		byID:   make(map[string]*models.FolderTemplate),
		store:  store,
		logger: logger,
	}

	for _, name := range entries {
		data, err := builtinFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var tmpl models.FolderTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		tmpl.BuiltIn = true

		if err := validateTemplate(&tmpl); err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", name, err)
		}
		if _, dup := c.byID[tmpl.ID]; dup {
			return nil, fmt.Errorf("builtin template id %q declared twice", tmpl.ID)
		}

		c.builtins = append(c.builtins, &tmpl)
		c.byID[tmpl.ID] = &tmpl
	}

	logger.Info("template catalog loaded", "builtin_count", len(c.builtins))
	return c, nil
}

func validateTemplate(tmpl *models.FolderTemplate) error {
	if tmpl.EntityKind != "" && !tmpl.EntityKind.Valid() {
		return fmt.Errorf("unknown entity kind %q: %w", tmpl.EntityKind, domain.ErrValidation)
	}
	if len(tmpl.Folders) > config.MaxTemplateFolders {
		return fmt.Errorf("declares %d folders (max %d): %w", len(tmpl.Folders), config.MaxTemplateFolders, domain.ErrValidation)
	}
	return validation.ValidateStruct(tmpl,
		validation.Field(&tmpl.ID, validation.Required),
		validation.Field(&tmpl.Name, validation.Required, validation.Length(1, config.MaxTemplateNameLength)),
		validation.Field(&tmpl.Folders, validation.Required),
	)
}

// Resolve returns the template with the given id, built-in first, then the
// custom templates from the store. The returned template is a copy:
// catalog state never leaks to callers.
func (c *templateCatalog) Resolve(ctx context.Context, templateID string) (*models.FolderTemplate, error) {
	if tmpl, ok := c.byID[templateID]; ok {
		return tmpl.Clone(), nil
	}

	set, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, tmpl := range set.Templates {
		if tmpl.ID == templateID {
			return tmpl.Clone(), nil
		}
	}

	return nil, &domain.NotFoundError{
		Message:  fmt.Sprintf("template %q not found", templateID),
		Sentinel: domain.ErrTemplateNotFound,
	}
}

// List returns every template, built-ins first then customs in save order.
func (c *templateCatalog) List(ctx context.Context) ([]*models.FolderTemplate, error) {
	out := make([]*models.FolderTemplate, 0, len(c.builtins))
	for _, tmpl := range c.builtins {
		out = append(out, tmpl.Clone())
	}

	set, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, tmpl := range set.Templates {
		out = append(out, tmpl.Clone())
	}
	return out, nil
}

// Materialize stamps the template's specs as concrete nodes under root.
// Child ids are "{rootId}_{slug(name)}" and one further level
// "{childId}_{slug(subfolder)}". The root id was already proven unique
// tree-wide at attach time and prefixes every generated id, so only
// sibling-level slug collisions need checking here.
func (c *templateCatalog) Materialize(ctx context.Context, templateID string, root *models.FolderNode) error {
	tmpl, err := c.Resolve(ctx, templateID)
	if err != nil {
		return err
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(tmpl.Folders))

	for _, spec := range tmpl.Folders {
		childID := root.ID + "_" + Slug(spec.Name)
		if _, dup := seen[childID]; dup {
			return fmt.Errorf("template %q: folders %q collide on slug %q: %w",
				templateID, spec.Name, Slug(spec.Name), domain.ErrValidation)
		}
		seen[childID] = struct{}{}

		child := &models.FolderNode{
			ID:        childID,
			Name:      spec.Name,
			Kind:      models.KindTemplateFolder,
			ParentID:  root.ID,
			CreatedAt: now,
		}

		subSeen := make(map[string]struct{}, len(spec.Subfolders))
		for _, sub := range spec.Subfolders {
			subID := childID + "_" + Slug(sub)
			if _, dup := subSeen[subID]; dup {
				return fmt.Errorf("template %q: subfolders of %q collide on slug %q: %w",
					templateID, spec.Name, Slug(sub), domain.ErrValidation)
			}
			subSeen[subID] = struct{}{}

			child.Children = append(child.Children, &models.FolderNode{
				ID:        subID,
				Name:      sub,
				Kind:      models.KindSubfolder,
				ParentID:  childID,
				CreatedAt: now,
			})
		}

		root.Children = append(root.Children, child)
	}

	return nil
}

// CaptureAsTemplate freezes a folder's immediate children plus their direct
// subfolders into a new custom template and appends it to the store.
func (c *templateCatalog) CaptureAsTemplate(ctx context.Context, node *models.FolderNode, templateName string) (*models.FolderTemplate, error) {
	if err := validation.Validate(templateName,
		validation.Required,
		validation.Length(1, config.MaxTemplateNameLength),
	); err != nil {
		return nil, fmt.Errorf("%w: template name: %v", domain.ErrValidation, err)
	}
	if len(node.Children) == 0 {
		return nil, fmt.Errorf("capture %q: %w", node.ID, domain.ErrEmptyFolder)
	}

	tmpl := &models.FolderTemplate{
		ID:        "template_custom_" + uuid.NewString(),
		Name:      templateName,
		CreatedAt: time.Now(),
	}
	if node.Entity != nil {
		tmpl.EntityKind = node.Entity.EntityKind
	}

	for _, child := range node.Children {
		spec := models.TemplateFolderSpec{Name: child.Name}
		for _, sub := range child.Children {
			spec.Subfolders = append(spec.Subfolders, sub.Name)
		}
		tmpl.Folders = append(tmpl.Folders, spec)
	}

	if err := c.store.Append(ctx, tmpl); err != nil {
		return nil, err
	}

	c.logger.Info("custom template saved",
		"template_id", tmpl.ID,
		"name", tmpl.Name,
		"source_folder", node.ID,
		"folder_count", len(tmpl.Folders),
	)

	return tmpl.Clone(), nil
}
