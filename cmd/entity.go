package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vedsharma/adminkit/internal/entity"
	"github.com/vedsharma/adminkit/internal/format"
	"github.com/vedsharma/adminkit/internal/notification"
	"github.com/vedsharma/adminkit/internal/store"
)

var (
	listPage    int
	listPerPage int
	listView    string
	listFilters []string
	setFields   []string
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "entities",
		Short: "List configured entities",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			format.PrintEntities(current.entities)
		},
	})

	listCmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List items of an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listCmd.Flags().IntVar(&listPerPage, "per-page", 0, "Items per page (default: the view setting)")
	listCmd.Flags().StringVar(&listView, "view", "", "View name (default: the entity default view)")
	listCmd.Flags().StringArrayVarP(&listFilters, "filter", "f", []string{}, "Filter as key=value (can be used multiple times)")
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "show <entity> <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(2),
		RunE:  runShow,
	})

	createCmd := &cobra.Command{
		Use:   "create <entity>",
		Short: "Create an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args[0], "")
		},
	}
	addSetFlag(createCmd)
	rootCmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <entity> <id>",
		Short: "Update an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args[0], args[1])
		},
	}
	addSetFlag(updateCmd)
	rootCmd.AddCommand(updateCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "remove <entity> <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE:  runRemove,
	})
}

func addSetFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&setFields, "set", "s", []string{}, "Field as key=value; dotted keys and JSON values are accepted")
}

func runList(cmd *cobra.Command, args []string) error {
	meta, err := current.entities.Get(args[0])
	if err != nil {
		return err
	}
	filters, err := parseAssignments(listFilters)
	if err != nil {
		return err
	}

	list := store.NewListStore(current.adapters)
	if err := list.SetEntity(meta, listView); err != nil {
		return err
	}
	if err := list.Reload(cmd.Context(), store.ListOptions{
		Page:    listPage,
		PerPage: listPerPage,
		Filters: filters,
	}); err != nil {
		return err
	}

	view, _ := meta.View(listView)
	state := list.State()
	format.PrintItems(state.Items, view.Columns, meta.IDKey)
	if list.HasPagination() {
		format.PrintListSummary(state, list.LastPage())
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	meta, err := current.entities.Get(args[0])
	if err != nil {
		return err
	}

	item := store.NewItemStore(current.adapters)
	if err := item.Load(cmd.Context(), meta, args[1]); err != nil {
		return err
	}
	format.PrintItem(item.State().Form, nil)
	return nil
}

func runSave(cmd *cobra.Command, slug, id string) error {
	meta, err := current.entities.Get(slug)
	if err != nil {
		return err
	}
	abilities := meta.Abilities()
	if id == "" && !abilities.Create {
		return fmt.Errorf("creating %s is disabled", slug)
	}
	if id != "" && !abilities.Edit {
		return fmt.Errorf("editing %s is disabled", slug)
	}

	values, err := parseAssignments(setFields)
	if err != nil {
		return err
	}
	if len(values) == 0 && id != "" {
		return errors.New("nothing to update, use --set key=value")
	}

	item := store.NewItemStore(current.adapters)
	if err := item.Load(cmd.Context(), meta, id); err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		item.SetField(k, values[k])
	}

	if err := item.Save(cmd.Context()); err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			format.PrintFieldErrors(item.State().FieldErrors)
			return errors.New(current.trans.Get("checkValidationErrors"))
		}
		return err
	}

	state := item.State()
	current.notify(notification.TypeSuccess, current.trans.Get("successfullySaved"), fmt.Sprintf("%s %s", slug, state.ID))
	fields := meta.UpdateFields()
	if len(fields) > 0 {
		fields = append([]entity.Field{{Key: meta.IDKey}}, fields...)
	}
	format.PrintItem(state.Form, fields)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	meta, err := current.entities.Get(args[0])
	if err != nil {
		return err
	}
	if !meta.Abilities().Delete {
		return fmt.Errorf("deleting %s is disabled", args[0])
	}

	list := store.NewListStore(current.adapters)
	if err := list.SetEntity(meta, ""); err != nil {
		return err
	}
	if err := list.DeleteItem(cmd.Context(), entity.Item{meta.IDKey: args[1]}); err != nil {
		return err
	}
	current.notify(notification.TypeSuccess, current.trans.Get("deleteItem"), fmt.Sprintf("%s %s", args[0], args[1]))
	return nil
}

// parseAssignments turns key=value pairs into a map. Values that parse as
// JSON keep their type; everything else is a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", p)
		}
		values[key] = parseValue(raw)
	}
	return values, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
