package ged

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lexged/internal/config"
	"lexged/internal/domain"
	models "lexged/internal/domain/models/ged"
	gedRepo "lexged/internal/domain/repositories/ged"
	gedSvc "lexged/internal/domain/services/ged"
	"lexged/internal/registry"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type integrationEngine struct {
	stores   gedRepo.Stores
	catalog  gedSvc.TemplateCatalog
	registry *registry.EntityRegistry
	source   gedRepo.EntitySource
	logger   *slog.Logger
}

// NewIntegrationEngine creates the integration engine over the three
// aggregate stores, the template catalog, the entity registry and the CRM
// source.
func NewIntegrationEngine(
	stores gedRepo.Stores,
	catalog gedSvc.TemplateCatalog,
	reg *registry.EntityRegistry,
	source gedRepo.EntitySource,
	logger *slog.Logger,
) gedSvc.IntegrationEngine {
	return &integrationEngine{
		stores:   stores,
		catalog:  catalog,
		registry: reg,
		source:   source,
		logger:   logger,
	}
}

// CreateEntityFolder materializes the entity-root folder under the matching
// category root. The duplicate guard runs against the freshly loaded tree
// and the failed call never saves, so the tree is unchanged on conflict.
func (e *integrationEngine) CreateEntityFolder(ctx context.Context, entity *models.EntityRecord, templateID string) (*models.FolderNode, error) {
	if err := validateEntity(entity); err != nil {
		return nil, err
	}

	if templateID != "" {
		tmpl, err := e.catalog.Resolve(ctx, templateID)
		if err != nil {
			return nil, err
		}
		if tmpl.EntityKind != "" && tmpl.EntityKind != entity.Kind {
			return nil, fmt.Errorf("%w: template %q applies to %s entities, not %s",
				domain.ErrValidation, templateID, tmpl.EntityKind, entity.Kind)
		}
	}

	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return nil, err
	}

	rootID := entity.RootFolderID()
	if existing := tree.FindByID(rootID); existing != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("entity %q already has folder %q", entity.ID, rootID),
			ResourceType: "entity_folder",
			ResourceID:   existing.ID,
		}
	}

	category := tree.FindOrCreateCategoryRoot(entity.Kind.CategoryRootID(), entity.Kind.CategoryRootName())
	node := models.NewEntityRoot(entity, time.Now())
	if err := tree.Attach(category.ID, node); err != nil {
		return nil, err
	}

	if templateID != "" {
		if err := e.catalog.Materialize(ctx, templateID, node); err != nil {
			return nil, err
		}
	}

	if err := e.stores.Tree.Save(ctx, tree); err != nil {
		return nil, err
	}

	e.logger.Info("entity folder created",
		"folder_id", node.ID,
		"entity_id", entity.ID,
		"entity_kind", entity.Kind,
		"template_id", templateID,
	)

	return node, nil
}

// CreateFolderFromTemplate resolves the entity in the registry and
// delegates to CreateEntityFolder.
func (e *integrationEngine) CreateFolderFromTemplate(ctx context.Context, templateID, entityID string) (*models.FolderNode, error) {
	entity, ok := e.registry.Lookup(entityID)
	if !ok {
		return nil, entityNotFound(entityID)
	}
	return e.CreateEntityFolder(ctx, entity, templateID)
}

// DeleteEntityFolder retires an entity's subtree. Purely storage-side:
// entity status stays with the CRM.
func (e *integrationEngine) DeleteEntityFolder(ctx context.Context, entityID string, action gedSvc.DeleteAction) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown delete action %q", domain.ErrValidation, action)
	}
	if action == gedSvc.ActionTransfer {
		// Two-phase contract: where the documents go is a separate,
		// explicit decision from what happens to the old folder.
		return fmt.Errorf("%w: transfer requires a destination entity; call TransferDocuments", domain.ErrValidation)
	}

	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return err
	}

	node := findEntityRoot(tree, entityID)
	if node == nil {
		return &domain.NotFoundError{
			Message:  fmt.Sprintf("entity %q has no folder", entityID),
			Sentinel: domain.ErrFolderNotFound,
		}
	}

	switch action {
	case gedSvc.ActionArchive:
		detached, err := tree.Detach(node.ID)
		if err != nil {
			return err
		}
		archived := tree.FindOrCreateCategoryRoot(models.ArchivedRootID, models.ArchivedRootName)
		if err := tree.Attach(archived.ID, detached); err != nil {
			return err
		}
	case gedSvc.ActionDelete:
		// Cascading and irreversible. File associations are not cleared;
		// callers that need them moved run TransferDocuments first.
		if err := tree.Remove(node.ID); err != nil {
			return err
		}
	}

	if err := e.stores.Tree.Save(ctx, tree); err != nil {
		return err
	}

	e.logger.Info("entity folder retired",
		"folder_id", node.ID,
		"entity_id", entityID,
		"action", action,
	)

	return nil
}

// RegisterFile records an uploaded document in the registry.
func (e *integrationEngine) RegisterFile(ctx context.Context, req *gedSvc.RegisterFileRequest) (*models.FileRecord, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxFolderNameLength)),
		validation.Field(&req.Size, validation.Min(int64(0))),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var ref *models.EntityRef
	if req.EntityID != "" {
		entity, ok := e.registry.Lookup(req.EntityID)
		if !ok {
			return nil, entityNotFound(req.EntityID)
		}
		ref = &models.EntityRef{
			EntityID:   entity.ID,
			EntityKind: entity.Kind,
			EntityName: entity.Name,
		}
	}

	files, err := e.stores.Files.Load(ctx)
	if err != nil {
		return nil, err
	}

	record := &models.FileRecord{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Size:           req.Size,
		ContentType:    req.ContentType,
		UploadedAt:     time.Now(),
		AssociatedWith: ref,
	}
	files.Add(record)

	if err := e.stores.Files.Save(ctx, files); err != nil {
		return nil, err
	}

	e.logger.Info("file registered",
		"file_id", record.ID,
		"name", record.Name,
		"entity_id", req.EntityID,
	)

	return record, nil
}

// LinkDocumentToEntity stamps the file's association. Pure data
// association: the tree is never touched.
func (e *integrationEngine) LinkDocumentToEntity(ctx context.Context, fileID, entityID string) (*models.FileRecord, error) {
	entity, ok := e.registry.Lookup(entityID)
	if !ok {
		return nil, entityNotFound(entityID)
	}

	files, err := e.stores.Files.Load(ctx)
	if err != nil {
		return nil, err
	}

	record := files.FindByID(fileID)
	if record == nil {
		return nil, &domain.NotFoundError{
			Message:  fmt.Sprintf("file %q not found", fileID),
			Sentinel: domain.ErrFileNotFound,
		}
	}

	record.AssociatedWith = &models.EntityRef{
		EntityID:   entity.ID,
		EntityKind: entity.Kind,
		EntityName: entity.Name,
	}

	if err := e.stores.Files.Save(ctx, files); err != nil {
		return nil, err
	}

	e.logger.Info("document linked",
		"file_id", fileID,
		"entity_id", entityID,
		"entity_kind", entity.Kind,
	)

	return record, nil
}

// TransferDocuments re-points the source entity's files at the destination
// and re-parents the source subtree under the destination's root. The two
// aggregates commit separately, files first; a conflict on the second
// commit is recovered by retrying the whole call, which is idempotent
// (already re-pointed files match nothing on re-run, and the folder move
// keys purely on ids).
func (e *integrationEngine) TransferDocuments(ctx context.Context, fromEntityID, toEntityID string) (*gedSvc.TransferResult, error) {
	to, ok := e.registry.Lookup(toEntityID)
	if !ok {
		return nil, entityNotFound(toEntityID)
	}
	if fromEntityID == toEntityID {
		return nil, fmt.Errorf("%w: source and destination entity are the same", domain.ErrValidation)
	}

	// Phase 1: re-point file associations.
	files, err := e.stores.Files.Load(ctx)
	if err != nil {
		return nil, err
	}
	moved := files.RetargetAll(fromEntityID, to)
	if moved > 0 {
		if err := e.stores.Files.Save(ctx, files); err != nil {
			return nil, err
		}
	}

	// Phase 2: re-parent the folder subtree.
	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &gedSvc.TransferResult{
		FilesMoved:    moved,
		DestinationID: to.RootFolderID(),
	}

	source := findEntityRoot(tree, fromEntityID)
	if source == nil && moved == 0 {
		// Nothing references the source at all. The old behavior was a
		// silent no-op; fail loudly and let the caller decide.
		return nil, entityNotFound(fromEntityID)
	}

	if source != nil {
		dest := tree.FindByID(to.RootFolderID())
		if dest == nil {
			category := tree.FindOrCreateCategoryRoot(to.Kind.CategoryRootID(), to.Kind.CategoryRootName())
			dest = models.NewEntityRoot(to, time.Now())
			if err := tree.Attach(category.ID, dest); err != nil {
				return nil, err
			}
		}

		detached, err := tree.Detach(source.ID)
		if err != nil {
			return nil, err
		}
		// The moved subtree stops being an entity root: its entity is
		// retiring, and keeping the back-reference would flag it as
		// orphaned on every validation pass from here on. It also gives
		// up the deterministic root id so a later create for the source
		// entity does not collide with a folder that no longer is its
		// entity root.
		detached.Kind = models.KindSubfolder
		detached.Entity = nil
		movedID := detached.ID + "_transferred"
		if tree.FindByID(movedID) != nil {
			movedID = detached.ID + "_transferred_" + uuid.NewString()[:8]
		}
		detached.ID = movedID
		for _, child := range detached.Children {
			child.ParentID = movedID
		}
		if err := tree.Attach(dest.ID, detached); err != nil {
			return nil, err
		}

		if err := e.stores.Tree.Save(ctx, tree); err != nil {
			return nil, err
		}
		result.FolderMoved = true
		result.SourceFolder = movedID
	}

	e.logger.Info("documents transferred",
		"from_entity_id", fromEntityID,
		"to_entity_id", toEntityID,
		"files_moved", result.FilesMoved,
		"folder_moved", result.FolderMoved,
	)

	return result, nil
}

// SaveFolderAsTemplate freezes an existing folder's structure into a new
// custom template.
func (e *integrationEngine) SaveFolderAsTemplate(ctx context.Context, folderID, templateName string) (*models.FolderTemplate, error) {
	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return nil, err
	}

	node := tree.FindByID(folderID)
	if node == nil {
		return nil, &domain.NotFoundError{
			Message:  fmt.Sprintf("folder %q not found", folderID),
			Sentinel: domain.ErrFolderNotFound,
		}
	}

	return e.catalog.CaptureAsTemplate(ctx, node, templateName)
}

// SyncEntities refreshes the registry from the CRM. The three kinds fetch
// concurrently; no tree state is held while suspended on the network.
// Reconciliation with the folder tree is ValidateFolderStructure's job.
func (e *integrationEngine) SyncEntities(ctx context.Context) (*gedSvc.SyncResult, error) {
	kinds := models.Kinds()
	fetched := make([][]*models.EntityRecord, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			records, err := e.source.FetchEntities(gctx, kind)
			if err != nil {
				return fmt.Errorf("sync %s entities: %w", kind, err)
			}
			fetched[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*models.EntityRecord
	result := &gedSvc.SyncResult{}
	for i, kind := range kinds {
		kept := 0
		for _, rec := range fetched[i] {
			if rec == nil {
				e.logger.Warn("skipping null CRM record", "kind", kind)
				continue
			}
			if rec.ID == "" || !rec.Kind.Valid() || rec.Kind != kind {
				e.logger.Warn("skipping malformed CRM record",
					"kind", kind,
					"record_id", rec.ID,
					"record_kind", rec.Kind,
				)
				continue
			}
			all = append(all, rec)
			kept++
		}
		switch kind {
		case models.EntityClient:
			result.Clients = kept
		case models.EntityProcess:
			result.Processes = kept
		case models.EntityContract:
			result.Contracts = kept
		}
	}

	e.registry.Replace(all)

	e.logger.Info("CRM entities synced",
		"clients", result.Clients,
		"processes", result.Processes,
		"contracts", result.Contracts,
	)

	return result, nil
}

// ValidateFolderStructure runs the two independent drift checks over
// snapshots of the three collections. Cancellation between category
// subtrees yields a partial report; whatever was found is still valid.
func (e *integrationEngine) ValidateFolderStructure(ctx context.Context) (*gedSvc.ValidationReport, error) {
	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return nil, err
	}
	files, err := e.stores.Files.Load(ctx)
	if err != nil {
		return nil, err
	}
	known := e.registry.IDs()

	report := &gedSvc.ValidationReport{}
	now := time.Now()

	// Check 1: orphaned entity-root folders, one issue per folder.
	for _, root := range tree.Roots {
		if ctx.Err() != nil {
			report.Partial = true
			break
		}
		for _, node := range entityRootsIn(root) {
			if _, ok := known[node.Entity.EntityID]; ok {
				continue
			}
			report.Issues = append(report.Issues, &models.Issue{
				ID:       uuid.NewString(),
				Kind:     models.IssueOrphanedFolder,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("folder %q references entity %q which no longer exists in the registry",
					node.ID, node.Entity.EntityID),
				FolderID:   node.ID,
				EntityID:   node.Entity.EntityID,
				DetectedAt: now,
			})
		}
	}

	// Check 2: unlinked files, reported once in aggregate. Runs
	// regardless of what check 1 found, but not past cancellation.
	if !report.Partial {
		if unlinked := files.Unlinked(); len(unlinked) > 0 {
			ids := make([]string, len(unlinked))
			for i, f := range unlinked {
				ids[i] = f.ID
			}
			report.Issues = append(report.Issues, &models.Issue{
				ID:         uuid.NewString(),
				Kind:       models.IssueUnlinkedFiles,
				Severity:   models.SeverityInfo,
				Message:    fmt.Sprintf("%d document(s) have no entity association", len(ids)),
				FileIDs:    ids,
				DetectedAt: now,
			})
		}
	}

	e.logger.Info("folder structure validated",
		"issue_count", len(report.Issues),
		"partial", report.Partial,
	)

	return report, nil
}

// Tree returns a snapshot of the current forest with per-entity file
// counts stamped on the entity roots. The counts are computed at read time
// from the file registry; mutating operations never maintain them.
func (e *integrationEngine) Tree(ctx context.Context) (*models.Tree, error) {
	tree, err := e.stores.Tree.Load(ctx)
	if err != nil {
		return nil, err
	}
	files, err := e.stores.Files.Load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range files.Files {
		if f.AssociatedWith != nil {
			counts[f.AssociatedWith.EntityID]++
		}
	}
	for node := range tree.Walk() {
		if node.Kind == models.KindEntityRoot && node.Entity != nil {
			node.FileCount = counts[node.Entity.EntityID]
		}
	}
	return tree, nil
}

func validateEntity(entity *models.EntityRecord) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is required", domain.ErrValidation)
	}
	if !entity.Kind.Valid() {
		return fmt.Errorf("%w: unknown entity kind %q", domain.ErrValidation, entity.Kind)
	}
	return validation.ValidateStruct(entity,
		validation.Field(&entity.ID, validation.Required),
		validation.Field(&entity.Name, validation.Required, validation.Length(1, config.MaxEntityNameLength)),
	)
}

func entityNotFound(entityID string) error {
	return &domain.NotFoundError{
		Message:  fmt.Sprintf("entity %q not found", entityID),
		Sentinel: domain.ErrEntityNotFound,
	}
}

// findEntityRoot locates the entity-root folder for an entity id. The
// entity may already be gone from the registry; only the tree is consulted.
func findEntityRoot(tree *models.Tree, entityID string) *models.FolderNode {
	for node := range tree.Walk() {
		if node.Kind == models.KindEntityRoot && node.Entity != nil && node.Entity.EntityID == entityID {
			return node
		}
	}
	return nil
}

// entityRootsIn collects entity-root nodes under one category root, so the
// validation pass can checkpoint between subtrees.
func entityRootsIn(root *models.FolderNode) []*models.FolderNode {
	var out []*models.FolderNode
	var walk func(*models.FolderNode)
	walk = func(n *models.FolderNode) {
		if n.Kind == models.KindEntityRoot && n.Entity != nil {
			out = append(out, n)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}
