package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const templateColumns = `id, name, description, icon, is_builtin, schema, created_at, updated_at`

// TemplatesTable reads and writes feature templates.
type TemplatesTable struct {
	*env
}

// GetAll returns builtin templates first, then custom ones, each by name.
func (t *TemplatesTable) GetAll(ctx context.Context) ([]types.Template, error) {
	return t.list(ctx, "")
}

// GetCustom returns the templates that are not builtin, by name.
func (t *TemplatesTable) GetCustom(ctx context.Context) ([]types.Template, error) {
	return t.list(ctx, "WHERE is_builtin = 0")
}

func (t *TemplatesTable) list(ctx context.Context, where string) ([]types.Template, error) {
	rows, err := t.db.All(ctx,
		"SELECT "+templateColumns+" FROM templates "+where+" ORDER BY is_builtin DESC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	out := make([]types.Template, 0, len(rows))
	for _, row := range rows {
		tpl, err := hydrateTemplate(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *tpl)
	}
	return out, nil
}

// GetByID returns the template or a NotFoundError.
func (t *TemplatesTable) GetByID(ctx context.Context, id string) (*types.Template, error) {
	return t.getBy(ctx, "id", id)
}

// GetByName returns the template with the given name or a NotFoundError.
func (t *TemplatesTable) GetByName(ctx context.Context, name string) (*types.Template, error) {
	return t.getBy(ctx, "name", name)
}

func (t *TemplatesTable) getBy(ctx context.Context, col, value string) (*types.Template, error) {
	row, err := t.db.Get(ctx, "SELECT "+templateColumns+" FROM templates WHERE "+col+" = ?", value)
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", value, err)
	}
	if row == nil {
		return nil, types.NotFound("template", value)
	}
	return hydrateTemplate(row)
}

// Create inserts a template under the caller's id. Duplicate ids and names
// fail with the database's uniqueness error.
func (t *TemplatesTable) Create(ctx context.Context, in types.CreateTemplateInput, builtin bool) (*types.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	schema, err := encode(normalizeSchema(in.Schema))
	if err != nil {
		return nil, err
	}
	isBuiltin := 0
	if builtin {
		isBuiltin = 1
	}

	now := t.stamp()
	err = t.db.Run(ctx, `INSERT INTO templates (
    id, name, description, icon, is_builtin, schema, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, arg(in.Description), arg(in.Icon), isBuiltin, schema, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating template %s: %w", in.ID, err)
	}
	return t.GetByID(ctx, in.ID)
}

// Update applies a partial update to a custom template.
func (t *TemplatesTable) Update(ctx context.Context, id string, in types.UpdateTemplateInput) (*types.Template, error) {
	existing, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsBuiltin {
		return nil, fmt.Errorf("%w: %s", types.ErrBuiltinTemplate, id)
	}
	var schema any
	if in.Schema != nil {
		for _, gt := range in.Schema.GeometryTypes {
			if !gt.Valid() {
				return nil, fmt.Errorf("%w: unknown geometry type %q", types.ErrInvalidValue, gt)
			}
		}
		if schema, err = encode(normalizeSchema(*in.Schema)); err != nil {
			return nil, err
		}
	}

	err = t.db.Run(ctx, `UPDATE templates SET
    name = COALESCE(?, name),
    description = COALESCE(?, description),
    icon = COALESCE(?, icon),
    schema = COALESCE(?, schema),
    updated_at = ?
WHERE id = ?`,
		arg(in.Name), arg(in.Description), arg(in.Icon), schema, t.stamp(), id)
	if err != nil {
		return nil, fmt.Errorf("updating template %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes a custom template. Features keep their template id.
func (t *TemplatesTable) Delete(ctx context.Context, id string) error {
	existing, err := t.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsBuiltin {
		return fmt.Errorf("%w: %s", types.ErrBuiltinTemplate, id)
	}
	if err := t.db.Run(ctx, "DELETE FROM templates WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	return nil
}

// Count returns the number of templates.
func (t *TemplatesTable) Count(ctx context.Context) (int, error) {
	row, err := t.db.Get(ctx, "SELECT COUNT(*) AS count FROM templates")
	if err != nil {
		return 0, fmt.Errorf("counting templates: %w", err)
	}
	return count(row), nil
}

// ResetBuiltins deletes every builtin template so the next seed reinstalls
// the bundled set.
func (t *TemplatesTable) ResetBuiltins(ctx context.Context) error {
	if err := t.db.Run(ctx, "DELETE FROM templates WHERE is_builtin = 1"); err != nil {
		return fmt.Errorf("resetting builtin templates: %w", err)
	}
	return nil
}

// normalizeSchema replaces nil collections so the stored JSON always has
// arrays and objects.
func normalizeSchema(s types.TemplateSchema) types.TemplateSchema {
	if s.GeometryTypes == nil {
		s.GeometryTypes = []types.GeometryType{}
	}
	if s.DefaultTags == nil {
		s.DefaultTags = []string{}
	}
	if s.Measurements == nil {
		s.Measurements = []types.MeasurementField{}
	}
	if s.SuggestedTasks == nil {
		s.SuggestedTasks = []string{}
	}
	if s.Properties == nil {
		s.Properties = map[string]types.PropertyField{}
	}
	return s
}

func hydrateTemplate(r types.Row) (*types.Template, error) {
	tpl := &types.Template{
		ID:          str(r, "id"),
		Name:        str(r, "name"),
		Description: optStr(r, "description"),
		Icon:        optStr(r, "icon"),
		IsBuiltin:   integer(r, "is_builtin") != 0,
	}
	if err := json.Unmarshal([]byte(str(r, "schema")), &tpl.Schema); err != nil {
		return nil, fmt.Errorf("decoding schema of template %s: %w", tpl.ID, err)
	}
	tpl.Schema = normalizeSchema(tpl.Schema)
	var err error
	if tpl.CreatedAt, err = timestamp(r, "created_at"); err != nil {
		return nil, err
	}
	if tpl.UpdatedAt, err = timestamp(r, "updated_at"); err != nil {
		return nil, err
	}
	return tpl, nil
}
