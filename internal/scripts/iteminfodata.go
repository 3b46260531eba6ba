package scripts

import "github.com/mowbray/fieldbot/internal/bot"

// ItemInfoData regenerates the item info database module from the wiki's
// datagen functions. Item IDs start at 0; only the upper bound is looked up.
func ItemInfoData(run *bot.Run) error {
	return updateInfoDatabase(run, infoDatabase{
		Link:          "iteminfodata",
		Module:        "Module:Iteminfo/data",
		Datagen:       "Iteminfo/datagen",
		MaxIDTemplate: "iteminfo/maxId",
		ChunkSize:     100,
	})
}
