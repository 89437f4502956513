// Package demo_configs 內嵌示範用的卡片與卡包設定。
package demo_configs

import (
	"embed"
	"io/fs"
)

//go:embed cards/*.yaml packs/*.yaml
var files embed.FS

// Cards 回傳卡片設定目錄（扁平）。
func Cards() fs.FS {
	return sub("cards")
}

// Packs 回傳卡包設定目錄（扁平）。
func Packs() fs.FS {
	return sub("packs")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		// 目錄由 go:embed 保證存在
		panic(err)
	}
	return f
}
