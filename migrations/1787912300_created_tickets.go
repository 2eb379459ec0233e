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

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "event",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "user",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.TextField{
				Name: "owner_address",
				Max:  100,
			},
			&core.TextField{
				Name: "tx_hash",
				Max:  100,
			},
			&core.BoolField{
				Name: "attended",
			},
			&core.BoolField{
				Name: "refunded",
			},
			&core.BoolField{
				Name: "reputation_decreased",
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

		// A resale purchase reassigns the ticket to the buyer, so the
		// (event, user) pair is not unique. The tx hash is.
		collection.AddIndex("idx_tickets_event_user", false, "event, user", "")
		collection.AddIndex("idx_tickets_tx_hash", true, "tx_hash", "tx_hash != ''")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
