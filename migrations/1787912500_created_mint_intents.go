package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("mint_intents")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "user",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name: "wallet_address",
				Max:  100,
			},
			&core.TextField{
				Name:     "idempotency_key",
				Required: true,
				Max:      64,
			},
			&core.TextField{
				Name: "tx_hash",
				Max:  100,
			},
			&core.SelectField{
				Name:      "state",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"pending",
					"submitted",
					"confirmed",
					"completed",
					"refund_due",
					"failed",
				},
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_mint_intents_key", true, "idempotency_key", "")
		collection.AddIndex("idx_mint_intents_state", false, "state", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("mint_intents")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
