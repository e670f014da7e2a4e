package weather

import (
	"fmt"
	"strings"
)

// FormatLive renders a live report the way chat replies show it.
func FormatLive(l *Live) string {
	return fmt.Sprintf("地区: %s %s\n当前天气: %s\n当前温度: %s ℃\n发布时间: %s\n",
		l.Province, l.City, l.Weather, l.Temperature, l.ReportTime)
}

// FormatForecast renders one block per day, separated by a blank line.
func FormatForecast(f *Forecast) string {
	blocks := make([]string, 0, len(f.Casts))
	for _, c := range f.Casts {
		blocks = append(blocks, fmt.Sprintf(
			"日期    : %s\n星期    : %s\n白天天气: %s\n夜晚天气: %s\n白天温度: %s ℃\n夜晚温度: %s ℃\n",
			c.Date, c.Week, c.DayWeather, c.NightWeather, c.DayTemp, c.NightTemp))
	}
	return strings.Join(blocks, "\n")
}
