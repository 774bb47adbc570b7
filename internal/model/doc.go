// Package model содержит доменные типы ядра: чеки, профили, настройки, рыночные ряды.
package model
