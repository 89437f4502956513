package main

import "github.com/fatih/color"

// 腳本輸出的顏色。NO_COLOR 或非終端輸出時 color 會自動關閉。
var (
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	blue   = color.New(color.FgBlue, color.Bold)
)

func PrintRed(msg string)    { red.Println(msg) }
func PrintGreen(msg string)  { green.Println(msg) }
func PrintYellow(msg string) { yellow.Println(msg) }
func PrintBlue(msg string)   { blue.Println(msg) }
