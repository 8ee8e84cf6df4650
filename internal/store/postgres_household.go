package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// todoRepo implements TodoRepository.
type todoRepo struct {
	pool *pgxpool.Pool
}

const todoColumns = `id, title, description, category, priority, status, due_date, assigned_to, created_by,
completed_at, completed_by, notes, external_calendar_event_id, created_at, updated_at`

func scanTodo(row pgx.Row) (*Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status, &t.DueDate,
		&t.AssignedTo, &t.CreatedBy, &t.CompletedAt, &t.CompletedBy, &t.Notes, &t.ExternalCalendarEventID,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return &t, nil
}

func collectTodos(rows pgx.Rows) ([]Todo, error) {
	defer rows.Close()
	var todos []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (r *todoRepo) Create(ctx context.Context, todo Todo) (*Todo, error) {
	defer observeDB(ctx, "db.todos.create")()
	const q = `INSERT INTO todos (id, title, description, category, priority, status, due_date, assigned_to, created_by, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + todoColumns
	return scanTodo(r.pool.QueryRow(ctx, q, todo.ID, todo.Title, todo.Description, todo.Category,
		todo.Priority, todo.Status, todo.DueDate, todo.AssignedTo, todo.CreatedBy, todo.Notes))
}

func (r *todoRepo) GetByID(ctx context.Context, id string) (*Todo, error) {
	defer observeDB(ctx, "db.todos.get_by_id")()
	const q = `SELECT ` + todoColumns + ` FROM todos WHERE id=$1`
	return scanTodo(r.pool.QueryRow(ctx, q, id))
}

func (r *todoRepo) List(ctx context.Context, status string) ([]Todo, error) {
	defer observeDB(ctx, "db.todos.list")()
	if status == "" {
		rows, err := r.pool.Query(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY due_date NULLS LAST, created_at`)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		return collectTodos(rows)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE status=$1 ORDER BY due_date NULLS LAST, created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return collectTodos(rows)
}

func (r *todoRepo) ListOverdue(ctx context.Context, before time.Time) ([]Todo, error) {
	defer observeDB(ctx, "db.todos.list_overdue")()
	const q = `SELECT ` + todoColumns + ` FROM todos
WHERE status='open' AND due_date IS NOT NULL AND due_date < $1
ORDER BY due_date`
	rows, err := r.pool.Query(ctx, q, before)
	if err != nil {
		return nil, fmt.Errorf("list overdue todos: %w", err)
	}
	return collectTodos(rows)
}

func (r *todoRepo) ListByAssignee(ctx context.Context, userID string) ([]Todo, error) {
	defer observeDB(ctx, "db.todos.list_by_assignee")()
	const q = `SELECT ` + todoColumns + ` FROM todos WHERE assigned_to=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos by assignee: %w", err)
	}
	return collectTodos(rows)
}

func (r *todoRepo) Update(ctx context.Context, todo Todo) error {
	defer observeDB(ctx, "db.todos.update")()
	const q = `UPDATE todos SET title=$2, description=$3, category=$4, priority=$5, status=$6, due_date=$7,
assigned_to=$8, notes=$9, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, todo.ID, todo.Title, todo.Description, todo.Category, todo.Priority,
		todo.Status, todo.DueDate, todo.AssignedTo, todo.Notes)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepo) SetExternalEventID(ctx context.Context, id string, eventID *string) error {
	defer observeDB(ctx, "db.todos.set_external_event_id")()
	const q = `UPDATE todos SET external_calendar_event_id=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, id, eventID)
	if err != nil {
		return fmt.Errorf("set todo event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepo) Complete(ctx context.Context, id, completedBy string, at time.Time) error {
	defer observeDB(ctx, "db.todos.complete")()
	const q = `UPDATE todos SET status='completed', completed_at=$3, completed_by=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, id, completedBy, at)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.todos.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// todoTemplateRepo implements TodoTemplateRepository.
type todoTemplateRepo struct {
	pool *pgxpool.Pool
}

const todoTemplateColumns = `id, title, description, category, default_assigned_to, estimated_minutes, is_active, created_at`

func scanTodoTemplate(row pgx.Row) (*TodoTemplate, error) {
	var t TodoTemplate
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.DefaultAssignedTo, &t.EstimatedMinutes, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan todo template: %w", err)
	}
	return &t, nil
}

func (r *todoTemplateRepo) Create(ctx context.Context, tpl TodoTemplate) (*TodoTemplate, error) {
	defer observeDB(ctx, "db.todo_templates.create")()
	const q = `INSERT INTO todo_templates (id, title, description, category, default_assigned_to, estimated_minutes, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + todoTemplateColumns
	return scanTodoTemplate(r.pool.QueryRow(ctx, q, tpl.ID, tpl.Title, tpl.Description, tpl.Category,
		tpl.DefaultAssignedTo, tpl.EstimatedMinutes, tpl.IsActive))
}

func (r *todoTemplateRepo) listWhere(ctx context.Context, where string) ([]TodoTemplate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+todoTemplateColumns+` FROM todo_templates `+where+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list todo templates: %w", err)
	}
	defer rows.Close()

	var templates []TodoTemplate
	for rows.Next() {
		t, err := scanTodoTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (r *todoTemplateRepo) ListActive(ctx context.Context) ([]TodoTemplate, error) {
	defer observeDB(ctx, "db.todo_templates.list_active")()
	return r.listWhere(ctx, `WHERE is_active`)
}

func (r *todoTemplateRepo) List(ctx context.Context) ([]TodoTemplate, error) {
	defer observeDB(ctx, "db.todo_templates.list")()
	return r.listWhere(ctx, ``)
}

func (r *todoTemplateRepo) Update(ctx context.Context, tpl TodoTemplate) error {
	defer observeDB(ctx, "db.todo_templates.update")()
	const q = `UPDATE todo_templates SET title=$2, description=$3, category=$4, default_assigned_to=$5,
estimated_minutes=$6, is_active=$7 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, tpl.ID, tpl.Title, tpl.Description, tpl.Category, tpl.DefaultAssignedTo,
		tpl.EstimatedMinutes, tpl.IsActive)
	if err != nil {
		return fmt.Errorf("update todo template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoTemplateRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.todo_templates.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM todo_templates WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete todo template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// shoppingRepo implements ShoppingRepository.
type shoppingRepo struct {
	pool *pgxpool.Pool
}

const shoppingColumns = `id, name, quantity, category, notes, is_checked, checked_at, checked_by, added_by, created_at, updated_at`

func scanShoppingItem(row pgx.Row) (*ShoppingItem, error) {
	var s ShoppingItem
	err := row.Scan(&s.ID, &s.Name, &s.Quantity, &s.Category, &s.Notes, &s.IsChecked, &s.CheckedAt,
		&s.CheckedBy, &s.AddedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan shopping item: %w", err)
	}
	return &s, nil
}

func (r *shoppingRepo) Create(ctx context.Context, item ShoppingItem) (*ShoppingItem, error) {
	defer observeDB(ctx, "db.shopping.create")()
	const q = `INSERT INTO shopping_items (id, name, quantity, category, notes, added_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + shoppingColumns
	return scanShoppingItem(r.pool.QueryRow(ctx, q, item.ID, item.Name, item.Quantity, item.Category, item.Notes, item.AddedBy))
}

func (r *shoppingRepo) CreateBatch(ctx context.Context, items []ShoppingItem) error {
	defer observeDB(ctx, "db.shopping.create_batch")()
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const q = `INSERT INTO shopping_items (id, name, quantity, category, notes, added_by) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range items {
		batch.Queue(q, item.ID, item.Name, item.Quantity, item.Category, item.Notes, item.AddedBy)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert shopping items: %w", err)
		}
	}
	return nil
}

func (r *shoppingRepo) GetByID(ctx context.Context, id string) (*ShoppingItem, error) {
	defer observeDB(ctx, "db.shopping.get_by_id")()
	const q = `SELECT ` + shoppingColumns + ` FROM shopping_items WHERE id=$1`
	return scanShoppingItem(r.pool.QueryRow(ctx, q, id))
}

func (r *shoppingRepo) List(ctx context.Context, includeChecked bool) ([]ShoppingItem, error) {
	defer observeDB(ctx, "db.shopping.list")()
	q := `SELECT ` + shoppingColumns + ` FROM shopping_items`
	if !includeChecked {
		q += ` WHERE NOT is_checked`
	}
	q += ` ORDER BY category NULLS LAST, created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []ShoppingItem
	for rows.Next() {
		s, err := scanShoppingItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r *shoppingRepo) Update(ctx context.Context, item ShoppingItem) error {
	defer observeDB(ctx, "db.shopping.update")()
	const q = `UPDATE shopping_items SET name=$2, quantity=$3, category=$4, notes=$5, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, item.ID, item.Name, item.Quantity, item.Category, item.Notes)
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shoppingRepo) SetChecked(ctx context.Context, id string, checked bool, checkedBy *string, at time.Time) error {
	defer observeDB(ctx, "db.shopping.set_checked")()
	if !checked {
		const q = `UPDATE shopping_items SET is_checked=FALSE, checked_at=NULL, checked_by=NULL, updated_at=NOW() WHERE id=$1`
		tag, err := r.pool.Exec(ctx, q, id)
		if err != nil {
			return fmt.Errorf("uncheck shopping item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	}
	const q = `UPDATE shopping_items SET is_checked=TRUE, checked_at=$3, checked_by=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, id, checkedBy, at)
	if err != nil {
		return fmt.Errorf("check shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shoppingRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.shopping.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM shopping_items WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shoppingRepo) DeleteChecked(ctx context.Context) error {
	defer observeDB(ctx, "db.shopping.delete_checked")()
	_, err := r.pool.Exec(ctx, `DELETE FROM shopping_items WHERE is_checked`)
	return err
}

// shoppingRecurringRepo implements ShoppingRecurringRepository.
type shoppingRecurringRepo struct {
	pool *pgxpool.Pool
}

const recurringColumns = `id, name, quantity, category, frequency_days, last_added, is_active, created_at`

func scanRecurringItem(row pgx.Row) (*ShoppingRecurringItem, error) {
	var s ShoppingRecurringItem
	err := row.Scan(&s.ID, &s.Name, &s.Quantity, &s.Category, &s.FrequencyDays, &s.LastAdded, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan recurring item: %w", err)
	}
	return &s, nil
}

func (r *shoppingRecurringRepo) Create(ctx context.Context, item ShoppingRecurringItem) (*ShoppingRecurringItem, error) {
	defer observeDB(ctx, "db.shopping_recurring.create")()
	const q = `INSERT INTO shopping_recurring_items (id, name, quantity, category, frequency_days, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + recurringColumns
	return scanRecurringItem(r.pool.QueryRow(ctx, q, item.ID, item.Name, item.Quantity, item.Category, item.FrequencyDays, item.IsActive))
}

func (r *shoppingRecurringRepo) listWhere(ctx context.Context, where string) ([]ShoppingRecurringItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recurringColumns+` FROM shopping_recurring_items `+where+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	defer rows.Close()

	var items []ShoppingRecurringItem
	for rows.Next() {
		s, err := scanRecurringItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r *shoppingRecurringRepo) ListActive(ctx context.Context) ([]ShoppingRecurringItem, error) {
	defer observeDB(ctx, "db.shopping_recurring.list_active")()
	return r.listWhere(ctx, `WHERE is_active`)
}

func (r *shoppingRecurringRepo) List(ctx context.Context) ([]ShoppingRecurringItem, error) {
	defer observeDB(ctx, "db.shopping_recurring.list")()
	return r.listWhere(ctx, ``)
}

func (r *shoppingRecurringRepo) MarkAdded(ctx context.Context, id string, at time.Time) error {
	defer observeDB(ctx, "db.shopping_recurring.mark_added")()
	tag, err := r.pool.Exec(ctx, `UPDATE shopping_recurring_items SET last_added=$2 WHERE id=$1`, id, at)
	if err != nil {
		return fmt.Errorf("mark recurring item added: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shoppingRecurringRepo) Update(ctx context.Context, item ShoppingRecurringItem) error {
	defer observeDB(ctx, "db.shopping_recurring.update")()
	const q = `UPDATE shopping_recurring_items SET name=$2, quantity=$3, category=$4, frequency_days=$5, is_active=$6 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, item.ID, item.Name, item.Quantity, item.Category, item.FrequencyDays, item.IsActive)
	if err != nil {
		return fmt.Errorf("update recurring item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shoppingRecurringRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.shopping_recurring.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM shopping_recurring_items WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete recurring item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// recipeRepo implements RecipeRepository.
type recipeRepo struct {
	pool *pgxpool.Pool
}

const recipeColumns = `id, name, description, category, instructions, prep_time_minutes, cook_time_minutes,
servings, is_favorite, created_by, created_at, updated_at`

func scanRecipe(row pgx.Row) (*Recipe, error) {
	var rec Recipe
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Category, &rec.Instructions,
		&rec.PrepTimeMinutes, &rec.CookTimeMinutes, &rec.Servings, &rec.IsFavorite, &rec.CreatedBy,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}
	return &rec, nil
}

func (r *recipeRepo) Create(ctx context.Context, recipe Recipe) (*Recipe, error) {
	defer observeDB(ctx, "db.recipes.create")()
	const q = `INSERT INTO recipes (id, name, description, category, instructions, prep_time_minutes, cook_time_minutes, servings, is_favorite, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + recipeColumns
	created, err := scanRecipe(r.pool.QueryRow(ctx, q, recipe.ID, recipe.Name, recipe.Description, recipe.Category,
		recipe.Instructions, recipe.PrepTimeMinutes, recipe.CookTimeMinutes, recipe.Servings, recipe.IsFavorite, recipe.CreatedBy))
	if err != nil {
		return nil, err
	}
	if err := r.replaceIngredients(ctx, created.ID, recipe.Ingredients); err != nil {
		return nil, err
	}
	created.Ingredients = recipe.Ingredients
	return created, nil
}

func (r *recipeRepo) replaceIngredients(ctx context.Context, recipeID string, ingredients []RecipeIngredient) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id=$1`, recipeID); err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}
	if len(ingredients) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const q = `INSERT INTO recipe_ingredients (id, recipe_id, ingredient_name, quantity, unit, notes)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, ing := range ingredients {
		batch.Queue(q, ing.ID, recipeID, ing.IngredientName, ing.Quantity, ing.Unit, ing.Notes)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ingredients {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert recipe ingredients: %w", err)
		}
	}
	return nil
}

func (r *recipeRepo) loadIngredients(ctx context.Context, recipeIDs []string) (map[string][]RecipeIngredient, error) {
	const q = `SELECT id, recipe_id, ingredient_name, quantity, unit, notes
FROM recipe_ingredients WHERE recipe_id = ANY($1) ORDER BY ingredient_name`
	rows, err := r.pool.Query(ctx, q, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	defer rows.Close()

	byRecipe := make(map[string][]RecipeIngredient)
	for rows.Next() {
		var ing RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.IngredientName, &ing.Quantity, &ing.Unit, &ing.Notes); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		byRecipe[ing.RecipeID] = append(byRecipe[ing.RecipeID], ing)
	}
	return byRecipe, rows.Err()
}

func (r *recipeRepo) GetByID(ctx context.Context, id string) (*Recipe, error) {
	defer observeDB(ctx, "db.recipes.get_by_id")()
	const q = `SELECT ` + recipeColumns + ` FROM recipes WHERE id=$1`
	rec, err := scanRecipe(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	ingredients, err := r.loadIngredients(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Ingredients = ingredients[rec.ID]
	return rec, nil
}

func (r *recipeRepo) List(ctx context.Context) ([]Recipe, error) {
	defer observeDB(ctx, "db.recipes.list")()
	rows, err := r.pool.Query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	var ids []string
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return recipes, nil
	}
	ingredients, err := r.loadIngredients(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		recipes[i].Ingredients = ingredients[recipes[i].ID]
	}
	return recipes, nil
}

func (r *recipeRepo) Update(ctx context.Context, recipe Recipe) error {
	defer observeDB(ctx, "db.recipes.update")()
	const q = `UPDATE recipes SET name=$2, description=$3, category=$4, instructions=$5, prep_time_minutes=$6,
cook_time_minutes=$7, servings=$8, is_favorite=$9, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, recipe.ID, recipe.Name, recipe.Description, recipe.Category, recipe.Instructions,
		recipe.PrepTimeMinutes, recipe.CookTimeMinutes, recipe.Servings, recipe.IsFavorite)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.replaceIngredients(ctx, recipe.ID, recipe.Ingredients)
}

func (r *recipeRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.recipes.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mealPlanRepo implements MealPlanRepository.
type mealPlanRepo struct {
	pool *pgxpool.Pool
}

const mealPlanColumns = `id, meal_date, meal_type, recipe_id, custom_meal_name, assigned_to, is_completed, notes, created_at, updated_at`

func scanMealPlan(row pgx.Row) (*MealPlan, error) {
	var m MealPlan
	err := row.Scan(&m.ID, &m.MealDate, &m.MealType, &m.RecipeID, &m.CustomMealName, &m.AssignedTo,
		&m.IsCompleted, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan meal plan: %w", err)
	}
	return &m, nil
}

func (r *mealPlanRepo) Create(ctx context.Context, plan MealPlan) (*MealPlan, error) {
	defer observeDB(ctx, "db.meal_plans.create")()
	const q = `INSERT INTO meal_plans (id, meal_date, meal_type, recipe_id, custom_meal_name, assigned_to, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + mealPlanColumns
	return scanMealPlan(r.pool.QueryRow(ctx, q, plan.ID, plan.MealDate, plan.MealType, plan.RecipeID,
		plan.CustomMealName, plan.AssignedTo, plan.Notes))
}

func (r *mealPlanRepo) GetByID(ctx context.Context, id string) (*MealPlan, error) {
	defer observeDB(ctx, "db.meal_plans.get_by_id")()
	const q = `SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE id=$1`
	return scanMealPlan(r.pool.QueryRow(ctx, q, id))
}

func (r *mealPlanRepo) ListRange(ctx context.Context, from, to time.Time) ([]MealPlan, error) {
	defer observeDB(ctx, "db.meal_plans.list_range")()
	const q = `SELECT ` + mealPlanColumns + ` FROM meal_plans
WHERE meal_date >= $1 AND meal_date <= $2 ORDER BY meal_date, meal_type`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		m, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *m)
	}
	return plans, rows.Err()
}

func (r *mealPlanRepo) Update(ctx context.Context, plan MealPlan) error {
	defer observeDB(ctx, "db.meal_plans.update")()
	const q = `UPDATE meal_plans SET meal_date=$2, meal_type=$3, recipe_id=$4, custom_meal_name=$5,
assigned_to=$6, is_completed=$7, notes=$8, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, plan.ID, plan.MealDate, plan.MealType, plan.RecipeID, plan.CustomMealName,
		plan.AssignedTo, plan.IsCompleted, plan.Notes)
	if err != nil {
		return fmt.Errorf("update meal plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mealPlanRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.meal_plans.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM meal_plans WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
