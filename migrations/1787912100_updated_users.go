package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.TextField{
				Name: "wallet_address",
				Max:  100,
			},
			&core.NumberField{
				Name:    "reputation",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "total_tickets_minted",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "total_events_attended",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "total_flags",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		for _, name := range []string{
			"wallet_address",
			"reputation",
			"total_tickets_minted",
			"total_events_attended",
			"total_flags",
		} {
			collection.Fields.RemoveByName(name)
		}

		return app.Save(collection)
	})
}
