package main

import (
	"os"

	"aerocrew.com/aerocrew/core"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath:      "../../models",
		ModelPkgPath: "models",                                                           // avoid helper functions
		Mode:         gen.WithoutContext | gen.WithDefaultQuery | gen.WithQueryInterface, // generate mode
	})

	g.WithDataTypeMap(map[string]func(gorm.ColumnType) (dataType string){
		"time": func(gorm.ColumnType) string {
			return "string"
		},
		"decimal": func(gorm.ColumnType) string {
			return "float64"
		},
	})

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(127.0.0.1:3306)/AeroCrew?parseTime=true"
	}
	g.UseDB(core.ConnectDB(dsn))

	g.GenerateModel("employees")
	g.ApplyBasic()

	// Generate the code
	g.Execute()
}
