package glyph

// font holds the glyph artwork, one string per row from the top, '#' lit.
// Glyphs are drawn in rows 1-7; row 0 is left blank.
var font = map[rune][]string{
	'a': {".###.", "#...#", "#...#", "#####", "#...#", "#...#", "#...#"},
	'b': {"####.", "#...#", "#...#", "####.", "#...#", "#...#", "####."},
	'c': {".###.", "#...#", "#....", "#....", "#....", "#...#", ".###."},
	'd': {"####.", "#...#", "#...#", "#...#", "#...#", "#...#", "####."},
	'e': {"#####", "#....", "#....", "####.", "#....", "#....", "#####"},
	'f': {"#####", "#....", "#....", "####.", "#....", "#....", "#...."},
	'g': {".###.", "#...#", "#....", "#.###", "#...#", "#...#", ".####"},
	'h': {"#...#", "#...#", "#...#", "#####", "#...#", "#...#", "#...#"},
	'i': {"###", ".#.", ".#.", ".#.", ".#.", ".#.", "###"},
	'j': {"..###", "...#.", "...#.", "...#.", "...#.", "#..#.", ".##.."},
	'k': {"#...#", "#..#.", "#.#..", "##...", "#.#..", "#..#.", "#...#"},
	'l': {"#....", "#....", "#....", "#....", "#....", "#....", "#####"},
	'm': {"#...#", "##.##", "#.#.#", "#.#.#", "#...#", "#...#", "#...#"},
	'n': {"#...#", "#...#", "##..#", "#.#.#", "#..##", "#...#", "#...#"},
	'o': {".###.", "#...#", "#...#", "#...#", "#...#", "#...#", ".###."},
	'p': {"####.", "#...#", "#...#", "####.", "#....", "#....", "#...."},
	'q': {".###.", "#...#", "#...#", "#...#", "#.#.#", "#..#.", ".##.#"},
	'r': {"####.", "#...#", "#...#", "####.", "#.#..", "#..#.", "#...#"},
	's': {".####", "#....", "#....", ".###.", "....#", "....#", "####."},
	't': {"#####", "..#..", "..#..", "..#..", "..#..", "..#..", "..#.."},
	'u': {"#...#", "#...#", "#...#", "#...#", "#...#", "#...#", ".###."},
	'v': {"#...#", "#...#", "#...#", "#...#", "#...#", ".#.#.", "..#.."},
	'w': {"#...#", "#...#", "#...#", "#.#.#", "#.#.#", "#.#.#", ".#.#."},
	'x': {"#...#", "#...#", ".#.#.", "..#..", ".#.#.", "#...#", "#...#"},
	'y': {"#...#", "#...#", ".#.#.", "..#..", "..#..", "..#..", "..#.."},
	'z': {"#####", "....#", "...#.", "..#..", ".#...", "#....", "#####"},

	'0': {".###.", "#...#", "#..##", "#.#.#", "##..#", "#...#", ".###."},
	'1': {".#.", "##.", ".#.", ".#.", ".#.", ".#.", "###"},
	'2': {".###.", "#...#", "....#", "...#.", "..#..", ".#...", "#####"},
	'3': {"####.", "....#", "....#", ".###.", "....#", "....#", "####."},
	'4': {"...#.", "..##.", ".#.#.", "#..#.", "#####", "...#.", "...#."},
	'5': {"#####", "#....", "####.", "....#", "....#", "#...#", ".###."},
	'6': {".###.", "#....", "#....", "####.", "#...#", "#...#", ".###."},
	'7': {"#####", "....#", "...#.", "..#..", ".#...", ".#...", ".#..."},
	'8': {".###.", "#...#", "#...#", ".###.", "#...#", "#...#", ".###."},
	'9': {".###.", "#...#", "#...#", ".####", "....#", "....#", ".###."},

	' ':  {"...", "...", "...", "...", "...", "...", "..."},
	'.':  {".", ".", ".", ".", ".", ".", "#"},
	',':  {"..", "..", "..", "..", "..", ".#", "#."},
	'!':  {"#", "#", "#", "#", "#", ".", "#"},
	'?':  {".###.", "#...#", "....#", "...#.", "..#..", ".....", "..#.."},
	':':  {".", ".", "#", ".", ".", "#", "."},
	';':  {"..", "..", ".#", "..", "..", ".#", "#."},
	'/':  {"....#", "....#", "...#.", "..#..", ".#...", "#....", "#...."},
	'-':  {"...", "...", "...", "###", "...", "...", "..."},
	'+':  {"...", "...", ".#.", "###", ".#.", "...", "..."},
	'=':  {"...", "...", "###", "...", "###", "...", "..."},
	'\'': {"#", "#", ".", ".", ".", ".", "."},
	'"':  {"#.#", "#.#", "...", "...", "...", "...", "..."},
	'(':  {".#", "#.", "#.", "#.", "#.", "#.", ".#"},
	')':  {"#.", ".#", ".#", ".#", ".#", ".#", "#."},
	'_':  {".....", ".....", ".....", ".....", ".....", ".....", "#####"},
	'%':  {"##..#", "##..#", "...#.", "..#..", ".#...", "#..##", "#..##"},
	'*':  {".....", "#.#.#", ".###.", "#####", ".###.", "#.#.#", "....."},
	'<':  {"...#", "..#.", ".#..", "#...", ".#..", "..#.", "...#"},
	'>':  {"#...", ".#..", "..#.", "...#", "..#.", ".#..", "#..."},
}
