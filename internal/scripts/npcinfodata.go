package scripts

import "github.com/mowbray/fieldbot/internal/bot"

// NPCInfoData regenerates the NPC info database module from the wiki's
// datagen functions. NPC IDs can be negative, so both range bounds are
// looked up.
func NPCInfoData(run *bot.Run) error {
	return updateInfoDatabase(run, infoDatabase{
		Link:          "npcinfodata",
		Module:        "Module:Npcinfo/data",
		Datagen:       "Npcinfo/datagen",
		MinIDTemplate: "npcinfo/minId",
		MaxIDTemplate: "npcinfo/maxId",
		ChunkSize:     100,
	})
}
